package api

import (
	"time"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/review"
	"github.com/contentops/review-cycle/app/tasks"
)

type Handler struct {
	settingsCache    *review.SettingsCache
	siteRepo         database.SiteRepository
	contentRepo      database.ContentRepository
	notificationRepo database.NotificationRepository
	scheduler        tasks.TaskSchedulerInterface
	cmsBaseUrl       string
}

// PublishPayload is the body posted by the CMS publish hook for every
// published content item.
type PublishPayload struct {
	ID             string           `json:"id" binding:"required"`
	Site           string           `json:"site"`
	ContentType    string           `json:"content_type" binding:"required"`
	Label          string           `json:"label"`
	UpdatedAt      time.Time        `json:"updated_at"`
	LastReviewDate *time.Time       `json:"last_review_date,omitempty"`
	Override       *review.Duration `json:"override,omitempty"`
}

// OverridePayload is the body of the override edit endpoint. A null
// override clears the per-content duration.
type OverridePayload struct {
	Override *review.Duration `json:"override"`
}
