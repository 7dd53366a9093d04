package review

import "time"

type Status string

const (
	StatusNone    Status = "none"
	StatusClear   Status = "clear"
	StatusDueSoon Status = "due_soon"
	StatusExpired Status = "expired"
)

// IsExpired reports whether the next review date has lapsed as of asOf.
// A nil next review date never expires.
func IsExpired(nextReviewDate *time.Time, asOf time.Time) bool {
	if nextReviewDate == nil {
		return false
	}
	return nextReviewDate.Before(asOf.UTC())
}

// IsDueSoon reports whether the next review date falls within the warning
// window: on or before asOf plus the warning duration.
func IsDueSoon(nextReviewDate *time.Time, asOf time.Time, warning Duration) bool {
	if nextReviewDate == nil {
		return false
	}
	return !nextReviewDate.After(warning.Add(asOf))
}

// FurthestWarning picks the configured warning duration with the longest
// lead time, i.e. the one whose trigger date is latest. The banner shows
// as early as any configured warning allows.
func FurthestWarning(warnings []Duration, asOf time.Time) (Duration, bool) {
	if len(warnings) == 0 {
		return Duration{}, false
	}

	furthest := warnings[0]
	furthestDate := warnings[0].Add(asOf)
	for _, w := range warnings[1:] {
		if d := w.Add(asOf); d.After(furthestDate) {
			furthest = w
			furthestDate = d
		}
	}
	return furthest, true
}

// NotificationHorizon is the latest date covered by any configured
// notification warning time: content due on or before it qualifies for a
// notification. With no warning times configured only already-expired
// content qualifies, so the horizon falls on the day before asOf and an
// item due exactly on asOf is not yet selected.
func NotificationHorizon(settings *SiteSettings, asOf time.Time) time.Time {
	w, ok := FurthestWarning(settings.NotificationWarningTimes, asOf)
	if !ok {
		return asOf.UTC().AddDate(0, 0, -1)
	}
	return w.Add(asOf)
}

// Evaluate classifies content for the banner tier: expired beats due-soon,
// due-soon uses the furthest configured banner warning, and content
// outside review cycling reports StatusNone.
func Evaluate(nextReviewDate *time.Time, asOf time.Time, bannerWarnings []Duration) Status {
	if nextReviewDate == nil {
		return StatusNone
	}
	if IsExpired(nextReviewDate, asOf) {
		return StatusExpired
	}
	if w, ok := FurthestWarning(bannerWarnings, asOf); ok && IsDueSoon(nextReviewDate, asOf, w) {
		return StatusDueSoon
	}
	return StatusClear
}
