package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/review"
)

// SyncSiteSettingsTask registers a site row for one settings file and
// detects settings edits via the stored settings hash. SettingsChanged is
// populated after Execute; a changed site needs its stored review dates
// recomputed.
type SyncSiteSettingsTask struct {
	Task
	Settings        *review.SiteSettings
	SettingsHash    string
	SettingsChanged bool
	siteRepo        database.SiteRepository
}

func NewSyncSiteSettingsTask(siteName string, settings *review.SiteSettings, settingsHash string,
	siteRepo database.SiteRepository) *SyncSiteSettingsTask {
	return &SyncSiteSettingsTask{
		Task:         NewTask(TaskTypeSyncSiteSettings, siteName),
		Settings:     settings,
		SettingsHash: settingsHash,
		siteRepo:     siteRepo,
	}
}

func (t *SyncSiteSettingsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	changed, err := t.siteRepo.UpsertSite(t.SiteName, t.Settings.Site.Enabled, t.SettingsHash)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSiteSettings", "site", t.SiteName, "error", err)
		return fmt.Errorf("failed to sync site settings to database: %w", err)
	}
	t.SettingsChanged = changed

	slog.Info("Task completed",
		"type", "SyncSiteSettings",
		"site", t.SiteName,
		"duration", t.GetDuration(),
		"settings_changed", changed)

	return nil
}
