package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/review"
)

// Site is a registered site row, mirroring one settings file. The settings
// hash is a digest of the raw file, used to detect settings edits between
// runs.
type Site struct {
	ID           uuid.UUID
	Name         string
	Enabled      bool
	SettingsHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Content is the stored review bookkeeping for one content item. The
// embedded review.Content carries the domain fields; NextReviewDate is the
// derived, day-granular index the scanner queries on.
type Content struct {
	review.Content
	NextReviewDate *time.Time
	PublishedAt    *time.Time
	CreatedAt      time.Time
}

// ReviewNotification is the single notification record kept per content
// item. PublishedAt is set when the record is handed to the delivery
// system and bounds the once-per-UTC-day publish window.
type ReviewNotification struct {
	ID             uuid.UUID
	ContentID      uuid.UUID
	SiteName       string
	ContentLabel   string
	DueDate        *time.Time
	LastNotifiedAt time.Time
	PublishedAt    *time.Time
	CreatedAt      time.Time
}

// ContentFilter is a structured filter over content rows. It replaces
// string-built query predicates: every field maps to a parameterized SQL
// condition in the repository. Content without a site owner is never
// matched.
type ContentFilter struct {
	SiteName    string
	ContentType string

	// DueOnOrBefore bounds next_review_date; rows with no next review
	// date are always excluded.
	DueOnOrBefore *time.Time

	// HasOverride, when set, requires the per-content override to be
	// present (true) or absent (false).
	HasOverride *bool

	// OverrideEquals matches only content carrying exactly this override
	// duration.
	OverrideEquals *review.Duration
}
