package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/review"
)

type SiteRepository interface {
	GetSite(name string) (*Site, error)
	GetSites() ([]Site, error)

	// UpsertSite registers the site and reports whether its settings hash
	// changed since the last run.
	UpsertSite(name string, enabled bool, settingsHash string) (changed bool, err error)
}

type ContentRepository interface {
	GetContent(id uuid.UUID) (*Content, error)
	GetContentCount(siteName string) (int, error)

	// UpsertContent stores the publish-hook payload and reports whether
	// this was the item's first publish.
	UpsertContent(c Content) (firstPublish bool, err error)

	SetLastReviewDate(id uuid.UUID, lastReview time.Time) error
	SetOverride(id uuid.UUID, override *review.Duration) error
	SetNextReviewDate(id uuid.UUID, next *time.Time) error

	// ListDue returns a batch of site-owned content matching the filter,
	// ordered by id for keyset pagination: pass the last id of the
	// previous batch as afterID, or uuid.Nil for the first batch.
	ListDue(filter ContentFilter, afterID uuid.UUID, limit int) ([]Content, error)

	// ListBySite pages through every content row of a site, for
	// recomputation after settings changes.
	ListBySite(siteName string, afterID uuid.UUID, limit int) ([]Content, error)

	// ListDistinctOverrideDurations returns each override duration value
	// in use by the site's content.
	ListDistinctOverrideDurations(siteName string) ([]review.Duration, error)
}

type NotificationRepository interface {
	GetByContentID(contentID uuid.UUID) (*ReviewNotification, error)
	GetBySite(siteName string, limit int) ([]ReviewNotification, error)
	GetCount() (int, error)

	Insert(n *ReviewNotification) error
	Update(n *ReviewNotification) error
	MarkPublished(id uuid.UUID, publishedAt time.Time) error
}
