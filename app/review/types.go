package review

import (
	"time"

	"github.com/google/uuid"
)

// Content carries the review-relevant fields of a CMS content item.
type Content struct {
	ID             uuid.UUID
	Site           string
	ContentType    string
	Label          string
	UpdatedAt      time.Time
	LastReviewDate *time.Time
	Override       *Duration
}

// HasSiteOwner reports whether the content belongs to a site. Global
// content (no owner) is excluded from review cycling entirely.
func (c Content) HasSiteOwner() bool {
	return c.Site != ""
}

type SiteInfo struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// ContentTypeMap binds one content type to its review cycle duration
// within a site's settings. DueWarningDuration is a legacy per-type banner
// warning kept for older settings files; the site-level warning lists are
// what current code consults.
type ContentTypeMap struct {
	ContentType        string   `yaml:"content_type"`
	CycleDuration      Duration `yaml:"cycle_duration"`
	DueWarningDuration Duration `yaml:"due_warning_duration,omitempty"`
}

// SiteSettings is the per-site review cycle configuration. A site without
// settings (or with Enabled false) has review cycling disabled.
type SiteSettings struct {
	Site                     SiteInfo         `yaml:"site"`
	DefaultCycleDuration     Duration         `yaml:"default_cycle_duration"`
	BannerWarningDurations   []Duration       `yaml:"banner_warning_durations"`
	NotificationWarningTimes []Duration       `yaml:"notification_warning_times"`
	ContentTypeMaps          []ContentTypeMap `yaml:"content_type_maps"`
}

// TypeMap returns the content type map for the given type, or nil when the
// type is not configured for this site.
func (s *SiteSettings) TypeMap(contentType string) *ContentTypeMap {
	for i := range s.ContentTypeMaps {
		if s.ContentTypeMaps[i].ContentType == contentType {
			return &s.ContentTypeMaps[i]
		}
	}
	return nil
}
