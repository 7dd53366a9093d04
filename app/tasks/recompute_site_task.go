package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/review"
)

// RecomputeSiteTask re-derives the stored next review date for every
// content item of a site, in batches. Run after a site's settings change,
// since type map and default durations feed the derivation.
type RecomputeSiteTask struct {
	Task
	Settings    *review.SiteSettings
	contentRepo database.ContentRepository
	batchSize   int
}

func NewRecomputeSiteTask(siteName string, settings *review.SiteSettings,
	contentRepo database.ContentRepository, batchSize int) *RecomputeSiteTask {
	return &RecomputeSiteTask{
		Task:        NewTask(TaskTypeRecomputeSite, siteName),
		Settings:    settings,
		contentRepo: contentRepo,
		batchSize:   batchSize,
	}
}

func (t *RecomputeSiteTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	updatedCount := 0
	errorCount := 0
	afterID := uuid.Nil

	for {
		batch, err := t.contentRepo.ListBySite(t.SiteName, afterID, t.batchSize)
		if err != nil {
			return fmt.Errorf("failed to list site contents: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, c := range batch {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			expected := review.ComputeNextReviewDate(c.Content, t.Settings)
			if datesEqual(expected, c.NextReviewDate) {
				continue
			}

			if err := t.setNextReviewDate(c.ID, expected); err != nil {
				slog.Error("Failed to update next review date",
					"content_id", c.ID, "site", t.SiteName, "error", err)
				errorCount++
			} else {
				updatedCount++
			}
		}

		if len(batch) < t.batchSize {
			break
		}
		afterID = batch[len(batch)-1].ID
	}

	slog.Info("Task completed",
		"type", "RecomputeSite",
		"site", t.SiteName,
		"duration", t.GetDuration(),
		"updated", updatedCount,
		"errors", errorCount)

	return nil
}

// setNextReviewDate retries a failed save once before giving up; save
// conflicts under the store's optimistic semantics are expected to clear
// on the immediate retry.
func (t *RecomputeSiteTask) setNextReviewDate(id uuid.UUID, next *time.Time) error {
	err := t.contentRepo.SetNextReviewDate(id, next)
	if err == nil {
		return nil
	}
	return t.contentRepo.SetNextReviewDate(id, next)
}

func datesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
