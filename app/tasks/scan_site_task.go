package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/notification"
	"github.com/contentops/review-cycle/app/review"
)

// ScanSiteTask finds one site's due and due-soon content and feeds it to
// the notifier. Content is gathered in two passes mirroring how durations
// resolve: per content type map for content without an override, then per
// distinct override duration in use. The passes are unioned by content id
// before notification so an item matching both is handled once.
type ScanSiteTask struct {
	Task
	Settings    *review.SiteSettings
	Now         time.Time
	contentRepo database.ContentRepository
	notifier    *notification.Notifier
	batchSize   int
}

func NewScanSiteTask(siteName string, settings *review.SiteSettings, now time.Time,
	contentRepo database.ContentRepository, notifier *notification.Notifier, batchSize int) *ScanSiteTask {
	return &ScanSiteTask{
		Task:        NewTask(TaskTypeScanSite, siteName),
		Settings:    settings,
		Now:         now,
		contentRepo: contentRepo,
		notifier:    notifier,
		batchSize:   batchSize,
	}
}

func (t *ScanSiteTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.Settings == nil || !t.Settings.Site.Enabled {
		slog.Debug("Review cycling disabled, skipping scan", "site", t.SiteName)
		return nil
	}

	// Predicates work on day granularity; the scan moment itself is kept
	// for notification bookkeeping.
	today := review.TruncateToDay(t.Now)
	horizon := review.NotificationHorizon(t.Settings, today)
	noOverride := false

	union := make(map[uuid.UUID]database.Content)
	queryErrors := 0

	// Content covered by a type map, without a per-content override.
	for _, m := range t.Settings.ContentTypeMaps {
		filter := database.ContentFilter{
			SiteName:      t.SiteName,
			ContentType:   m.ContentType,
			DueOnOrBefore: &horizon,
			HasOverride:   &noOverride,
		}
		if err := t.collect(ctx, filter, union); err != nil {
			slog.Error("Scan query failed, skipping predicate",
				"site", t.SiteName, "content_type", m.ContentType, "error", err)
			queryErrors++
		}
	}

	// Content carrying an override, one predicate per distinct override
	// duration in use.
	overrides, err := t.contentRepo.ListDistinctOverrideDurations(t.SiteName)
	if err != nil {
		slog.Error("Failed to list override durations", "site", t.SiteName, "error", err)
		queryErrors++
	}
	for i := range overrides {
		filter := database.ContentFilter{
			SiteName:       t.SiteName,
			DueOnOrBefore:  &horizon,
			OverrideEquals: &overrides[i],
		}
		if err := t.collect(ctx, filter, union); err != nil {
			slog.Error("Scan query failed, skipping predicate",
				"site", t.SiteName, "override", overrides[i].String(), "error", err)
			queryErrors++
		}
	}

	contents := make([]database.Content, 0, len(union))
	for _, c := range union {
		contents = append(contents, c)
	}

	result := t.notifier.ProcessDue(ctx, contents, t.Settings, t.Now)

	slog.Info("Task completed",
		"type", "ScanSite",
		"site", t.SiteName,
		"duration", t.GetDuration(),
		"matched", len(contents),
		"created", result.Created,
		"updated", result.Updated,
		"errors", result.Errors+queryErrors)

	return nil
}

// collect pages through every batch matching the filter and merges the
// rows into the union, deduplicating by content id.
func (t *ScanSiteTask) collect(ctx context.Context, filter database.ContentFilter, union map[uuid.UUID]database.Content) error {
	afterID := uuid.Nil

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := t.contentRepo.ListDue(filter, afterID, t.batchSize)
		if err != nil {
			return err
		}

		for _, c := range batch {
			union[c.ID] = c
		}

		if len(batch) < t.batchSize {
			return nil
		}
		afterID = batch[len(batch)-1].ID
	}
}
