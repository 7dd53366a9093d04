package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testSettings() *SiteSettings {
	return &SiteSettings{
		Site:                 SiteInfo{Name: "news", Enabled: true},
		DefaultCycleDuration: Duration{Unit: UnitMonths, Count: 6},
		ContentTypeMaps: []ContentTypeMap{
			{ContentType: "article", CycleDuration: Duration{Unit: UnitMonths, Count: 1}},
			{ContentType: "gallery"},
		},
	}
}

func TestResolveDuration_TypeMap(t *testing.T) {
	c := Content{ID: uuid.New(), Site: "news", ContentType: "article"}

	d, ok := ResolveDuration(c, testSettings())
	if !ok {
		t.Fatal("Expected a resolved duration for a mapped type")
	}
	if d.Unit != UnitMonths || d.Count != 1 {
		t.Errorf("Expected 1 month(s) from the type map, got %s", d)
	}
}

func TestResolveDuration_OverrideWins(t *testing.T) {
	override := Duration{Unit: UnitWeeks, Count: 2}
	c := Content{ID: uuid.New(), Site: "news", ContentType: "article", Override: &override}

	d, ok := ResolveDuration(c, testSettings())
	if !ok {
		t.Fatal("Expected a resolved duration")
	}
	if d != override {
		t.Errorf("Expected the override %s, got %s", override, d)
	}
}

func TestResolveDuration_MapFallsBackToSiteDefault(t *testing.T) {
	// The "gallery" map has no cycle duration of its own.
	c := Content{ID: uuid.New(), Site: "news", ContentType: "gallery"}

	d, ok := ResolveDuration(c, testSettings())
	if !ok {
		t.Fatal("Expected a resolved duration")
	}
	if d.Unit != UnitMonths || d.Count != 6 {
		t.Errorf("Expected the site default 6 month(s), got %s", d)
	}
}

func TestResolveDuration_UnmappedTypeNotApplicable(t *testing.T) {
	c := Content{ID: uuid.New(), Site: "news", ContentType: "podcast"}

	if _, ok := ResolveDuration(c, testSettings()); ok {
		t.Error("Expected no review cycle for an unmapped content type")
	}
}

func TestResolveDuration_GlobalContentExcluded(t *testing.T) {
	override := Duration{Unit: UnitDays, Count: 7}
	c := Content{ID: uuid.New(), ContentType: "article", Override: &override}

	if _, ok := ResolveDuration(c, testSettings()); ok {
		t.Error("Expected content without a site owner to be excluded, even with an override")
	}
}

func TestResolveDuration_NilSettings(t *testing.T) {
	c := Content{ID: uuid.New(), Site: "news", ContentType: "article"}

	if _, ok := ResolveDuration(c, nil); ok {
		t.Error("Expected no review cycle when the site has no settings")
	}
}

func TestComputeNextReviewDate_FromLastReview(t *testing.T) {
	lastReview := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c := Content{
		ID:             uuid.New(),
		Site:           "news",
		ContentType:    "article",
		LastReviewDate: &lastReview,
	}

	next := ComputeNextReviewDate(c, testSettings())
	if next == nil {
		t.Fatal("Expected a next review date")
	}

	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v (day-truncated), got %v", want, *next)
	}
}

func TestComputeNextReviewDate_OverrideIgnoresTypeMap(t *testing.T) {
	lastReview := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	override := Duration{Unit: UnitWeeks, Count: 2}
	c := Content{
		ID:             uuid.New(),
		Site:           "news",
		ContentType:    "article",
		LastReviewDate: &lastReview,
		Override:       &override,
	}

	next := ComputeNextReviewDate(c, testSettings())
	if next == nil {
		t.Fatal("Expected a next review date")
	}

	want := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v from the override, got %v", want, *next)
	}
}

func TestComputeNextReviewDate_AnchorsOnUpdateDateWhenNeverReviewed(t *testing.T) {
	c := Content{
		ID:          uuid.New(),
		Site:        "news",
		ContentType: "article",
		UpdatedAt:   time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	next := ComputeNextReviewDate(c, testSettings())
	if next == nil {
		t.Fatal("Expected a next review date")
	}

	want := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, *next)
	}
}

func TestComputeNextReviewDate_NotApplicable(t *testing.T) {
	c := Content{ID: uuid.New(), ContentType: "article"}

	if next := ComputeNextReviewDate(c, testSettings()); next != nil {
		t.Errorf("Expected nil next review date for global content, got %v", *next)
	}
}

func TestMarkReviewed_Idempotent(t *testing.T) {
	c := Content{ID: uuid.New(), Site: "news", ContentType: "article"}

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	MarkReviewed(&c, first)
	if c.LastReviewDate == nil || !c.LastReviewDate.Equal(first) {
		t.Fatalf("Expected last review date %v, got %v", first, c.LastReviewDate)
	}

	second := time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)
	MarkReviewed(&c, second)
	if !c.LastReviewDate.Equal(second) {
		t.Errorf("Expected the anchor to move to the latest now %v, got %v", second, c.LastReviewDate)
	}
}
