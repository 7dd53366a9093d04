package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/review"
)

// Notifier turns scan results into deduplicated notification records: one
// record per content item, published at most once per UTC calendar day.
// Repeat scans within the same day refresh the existing record and
// re-publish it without opening a new daily window.
type Notifier struct {
	notificationRepo database.NotificationRepository
	publisher        Publisher
}

type Result struct {
	Created int
	Updated int
	Errors  int
}

func NewNotifier(notificationRepo database.NotificationRepository, publisher Publisher) *Notifier {
	return &Notifier{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// ProcessDue handles one scan batch for a site. Failures are isolated per
// content item: a bad record is logged and skipped, never aborting the
// batch.
func (n *Notifier) ProcessDue(ctx context.Context, contents []database.Content, settings *review.SiteSettings, now time.Time) Result {
	var result Result

	for i := range contents {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		c := &contents[i]

		if !c.HasSiteOwner() {
			slog.Warn("Skipping content without site owner", "content_id", c.ID)
			result.Errors++
			continue
		}

		created, err := n.processOne(c, settings, now)
		if err != nil {
			slog.Error("Failed to process due content",
				"content_id", c.ID, "site", c.Site, "error", err)
			result.Errors++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	return result
}

func (n *Notifier) processOne(c *database.Content, settings *review.SiteSettings, now time.Time) (bool, error) {
	record, err := n.notificationRepo.GetByContentID(c.ID)
	if err != nil && err != database.ErrNotificationNotFound {
		return false, err
	}

	// Recompute the due date each time: configuration may have changed
	// since the record was created.
	dueDate := review.ComputeNextReviewDate(c.Content, settings)
	if dueDate == nil {
		dueDate = c.NextReviewDate
	}

	if record == nil {
		record = &database.ReviewNotification{
			ContentID:      c.ID,
			SiteName:       c.Site,
			ContentLabel:   c.Label,
			DueDate:        dueDate,
			LastNotifiedAt: now,
		}
		if err := n.notificationRepo.Insert(record); err != nil {
			return false, err
		}
		if err := n.publish(record, now, true); err != nil {
			return false, err
		}
		return true, nil
	}

	record.ContentLabel = c.Label
	record.DueDate = dueDate
	record.LastNotifiedAt = now
	if err := n.notificationRepo.Update(record); err != nil {
		return false, err
	}

	// Within the same UTC day the existing publish window stays open: the
	// record is re-published to push fresh state, but published_at is not
	// advanced. The window resets at UTC midnight.
	freshWindow := record.PublishedAt == nil || !review.SameUTCDay(*record.PublishedAt, now)
	if err := n.publish(record, now, freshWindow); err != nil {
		return false, err
	}
	return false, nil
}

func (n *Notifier) publish(record *database.ReviewNotification, now time.Time, openWindow bool) error {
	if err := n.publisher.Publish(record); err != nil {
		return err
	}
	if !openWindow {
		return nil
	}
	publishedAt := now.UTC()
	record.PublishedAt = &publishedAt
	return n.notificationRepo.MarkPublished(record.ID, publishedAt)
}
