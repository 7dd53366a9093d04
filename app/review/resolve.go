package review

import "time"

// ResolveDuration determines the review cycle duration applicable to a
// content item: the per-content override wins, then the site's content
// type map, then the site default when the map leaves its duration unset.
// Content with no site owner, or of a type the site has not opted in, has
// no review cycle and the second return value is false.
func ResolveDuration(c Content, settings *SiteSettings) (Duration, bool) {
	if settings == nil || !c.HasSiteOwner() {
		return Duration{}, false
	}

	if c.Override != nil && !c.Override.IsZero() {
		return *c.Override, true
	}

	m := settings.TypeMap(c.ContentType)
	if m == nil {
		return Duration{}, false
	}

	if m.CycleDuration.IsZero() {
		return settings.DefaultCycleDuration, true
	}
	return m.CycleDuration, true
}

// ComputeNextReviewDate derives the content's next review date: the
// resolved duration added to the last review date, or to the content's
// last update when it has never been formally reviewed. The result is
// truncated to UTC day granularity. Returns nil when review cycling does
// not apply to the content.
func ComputeNextReviewDate(c Content, settings *SiteSettings) *time.Time {
	duration, ok := ResolveDuration(c, settings)
	if !ok {
		return nil
	}

	anchor := c.UpdatedAt
	if c.LastReviewDate != nil {
		anchor = *c.LastReviewDate
	}

	next := TruncateToDay(duration.Add(anchor))
	return &next
}

// MarkReviewed resets the review anchor to now. Used by the first-publish
// hook, revision promotion, and the explicit dismiss-review action.
// Idempotent: calling twice simply moves the anchor to the latest now.
func MarkReviewed(c *Content, now time.Time) {
	t := now.UTC()
	c.LastReviewDate = &t
}
