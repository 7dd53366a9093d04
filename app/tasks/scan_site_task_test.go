package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/notification"
	"github.com/contentops/review-cycle/app/review"
)

type MockContentRepository struct {
	contents      []database.Content
	overrides     []review.Duration
	listDueCalls  int
	failOverrides bool
	failListDue   bool
	setNextCalls  map[uuid.UUID]*time.Time
	setNextFails  int
}

func (m *MockContentRepository) GetContent(id uuid.UUID) (*database.Content, error) {
	for i := range m.contents {
		if m.contents[i].ID == id {
			return &m.contents[i], nil
		}
	}
	return nil, database.ErrContentNotFound
}

func (m *MockContentRepository) GetContentCount(siteName string) (int, error) {
	return len(m.contents), nil
}

func (m *MockContentRepository) UpsertContent(c database.Content) (bool, error) {
	return false, nil
}

func (m *MockContentRepository) SetLastReviewDate(id uuid.UUID, lastReview time.Time) error {
	return nil
}

func (m *MockContentRepository) SetOverride(id uuid.UUID, override *review.Duration) error {
	return nil
}

func (m *MockContentRepository) SetNextReviewDate(id uuid.UUID, next *time.Time) error {
	if m.setNextFails > 0 {
		m.setNextFails--
		return errors.New("connection reset")
	}
	if m.setNextCalls == nil {
		m.setNextCalls = make(map[uuid.UUID]*time.Time)
	}
	m.setNextCalls[id] = next
	return nil
}

func (m *MockContentRepository) ListDue(filter database.ContentFilter, afterID uuid.UUID, limit int) ([]database.Content, error) {
	m.listDueCalls++
	if m.failListDue {
		return nil, errors.New("query failed")
	}
	if afterID != uuid.Nil {
		return nil, nil
	}

	var matched []database.Content
	for _, c := range m.contents {
		if !c.HasSiteOwner() || c.NextReviewDate == nil {
			continue
		}
		if filter.SiteName != "" && c.Site != filter.SiteName {
			continue
		}
		if filter.ContentType != "" && c.ContentType != filter.ContentType {
			continue
		}
		if filter.DueOnOrBefore != nil && c.NextReviewDate.After(*filter.DueOnOrBefore) {
			continue
		}
		if filter.HasOverride != nil && (c.Override != nil) != *filter.HasOverride {
			continue
		}
		if filter.OverrideEquals != nil && (c.Override == nil || *c.Override != *filter.OverrideEquals) {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

func (m *MockContentRepository) ListBySite(siteName string, afterID uuid.UUID, limit int) ([]database.Content, error) {
	if afterID != uuid.Nil {
		return nil, nil
	}
	var matched []database.Content
	for _, c := range m.contents {
		if c.Site == siteName {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (m *MockContentRepository) ListDistinctOverrideDurations(siteName string) ([]review.Duration, error) {
	if m.failOverrides {
		return nil, errors.New("query failed")
	}
	return m.overrides, nil
}

type MockNotificationRepository struct {
	records map[uuid.UUID]*database.ReviewNotification
	inserts int
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{records: make(map[uuid.UUID]*database.ReviewNotification)}
}

func (m *MockNotificationRepository) GetByContentID(contentID uuid.UUID) (*database.ReviewNotification, error) {
	if record, ok := m.records[contentID]; ok {
		recordCopy := *record
		return &recordCopy, nil
	}
	return nil, database.ErrNotificationNotFound
}

func (m *MockNotificationRepository) GetBySite(siteName string, limit int) ([]database.ReviewNotification, error) {
	var records []database.ReviewNotification
	for _, record := range m.records {
		if record.SiteName == siteName {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (m *MockNotificationRepository) GetCount() (int, error) {
	return len(m.records), nil
}

func (m *MockNotificationRepository) Insert(n *database.ReviewNotification) error {
	m.inserts++
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	recordCopy := *n
	m.records[n.ContentID] = &recordCopy
	return nil
}

func (m *MockNotificationRepository) Update(n *database.ReviewNotification) error {
	recordCopy := *n
	m.records[n.ContentID] = &recordCopy
	return nil
}

func (m *MockNotificationRepository) MarkPublished(id uuid.UUID, publishedAt time.Time) error {
	for _, record := range m.records {
		if record.ID == id {
			at := publishedAt
			record.PublishedAt = &at
			return nil
		}
	}
	return database.ErrNotificationNotFound
}

type MockSiteRepository struct {
	sites   map[string]*database.Site
	changed bool
}

func (m *MockSiteRepository) GetSite(name string) (*database.Site, error) {
	if site, ok := m.sites[name]; ok {
		return site, nil
	}
	return nil, database.ErrSiteNotFound
}

func (m *MockSiteRepository) GetSites() ([]database.Site, error) {
	var sites []database.Site
	for _, site := range m.sites {
		sites = append(sites, *site)
	}
	return sites, nil
}

func (m *MockSiteRepository) UpsertSite(name string, enabled bool, settingsHash string) (bool, error) {
	return m.changed, nil
}

func scanTestSettings(enabled bool) *review.SiteSettings {
	return &review.SiteSettings{
		Site:                 review.SiteInfo{Name: "news", Enabled: enabled},
		DefaultCycleDuration: review.Duration{Unit: review.UnitMonths, Count: 6},
		NotificationWarningTimes: []review.Duration{
			{Unit: review.UnitDays, Count: 3},
			{Unit: review.UnitWeeks, Count: 1},
		},
		ContentTypeMaps: []review.ContentTypeMap{
			{ContentType: "article", CycleDuration: review.Duration{Unit: review.UnitMonths, Count: 1}},
		},
	}
}

func dueContent(site, contentType string, lastReview, next time.Time, override *review.Duration) database.Content {
	lr := lastReview
	n := next
	return database.Content{
		Content: review.Content{
			ID:             uuid.New(),
			Site:           site,
			ContentType:    contentType,
			Label:          "Test " + contentType,
			UpdatedAt:      lastReview,
			LastReviewDate: &lr,
			Override:       override,
		},
		NextReviewDate: &n,
	}
}

func TestScanSiteTask_Execute(t *testing.T) {
	now := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	lastReview := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	override := &review.Duration{Unit: review.UnitWeeks, Count: 2}
	overrideDue := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC)

	contentRepo := &MockContentRepository{
		contents: []database.Content{
			dueContent("news", "article", lastReview, due, nil),
			dueContent("news", "article", lastReview, overrideDue, override),
		},
		overrides: []review.Duration{*override},
	}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	task := NewScanSiteTask("news", scanTestSettings(true), now, contentRepo, notifier, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if notificationRepo.inserts != 2 {
		t.Errorf("Expected 2 notifications created, got %d", notificationRepo.inserts)
	}
	for _, record := range notificationRepo.records {
		if record.PublishedAt == nil {
			t.Errorf("Expected notification %s to be published", record.ContentID)
		}
	}
}

func TestScanSiteTask_Execute_DisabledSite(t *testing.T) {
	contentRepo := &MockContentRepository{}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	task := NewScanSiteTask("news", scanTestSettings(false), time.Now().UTC(), contentRepo, notifier, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if contentRepo.listDueCalls != 0 {
		t.Errorf("Expected no queries against a disabled site, got %d", contentRepo.listDueCalls)
	}
	if notificationRepo.inserts != 0 {
		t.Errorf("Expected no notifications for a disabled site, got %d", notificationRepo.inserts)
	}
}

func TestScanSiteTask_Execute_DeduplicatesAcrossPredicates(t *testing.T) {
	now := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	lastReview := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	c := dueContent("news", "article", lastReview, due, nil)
	contentRepo := &MockContentRepository{
		// The same row returned by two predicates must yield one
		// notification.
		contents:  []database.Content{c, c},
		overrides: nil,
	}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	task := NewScanSiteTask("news", scanTestSettings(true), now, contentRepo, notifier, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if notificationRepo.inserts != 1 {
		t.Errorf("Expected 1 notification after dedup, got %d", notificationRepo.inserts)
	}
}

func TestScanSiteTask_Execute_NoWarningTimes(t *testing.T) {
	now := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	today := review.TruncateToDay(now)
	lastReview := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	dueToday := dueContent("news", "article", lastReview, today, nil)
	expired := dueContent("news", "article", lastReview, today.AddDate(0, 0, -1), nil)

	contentRepo := &MockContentRepository{
		contents: []database.Content{dueToday, expired},
	}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	// Without warning times only already-expired content is picked up; an
	// item due exactly today stays quiet.
	settings := scanTestSettings(true)
	settings.NotificationWarningTimes = nil

	task := NewScanSiteTask("news", settings, now, contentRepo, notifier, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if notificationRepo.inserts != 1 {
		t.Fatalf("Expected 1 notification, got %d", notificationRepo.inserts)
	}
	if _, ok := notificationRepo.records[dueToday.ID]; ok {
		t.Error("Content due today must not be notified without warning times")
	}
	if _, ok := notificationRepo.records[expired.ID]; !ok {
		t.Error("Expected expired content to be notified")
	}
}

func TestScanSiteTask_Execute_QueryFailureDoesNotAbort(t *testing.T) {
	now := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)

	contentRepo := &MockContentRepository{failOverrides: true}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	task := NewScanSiteTask("news", scanTestSettings(true), now, contentRepo, notifier, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected failed predicate to be skipped, got error: %v", err)
	}
}

func TestScanSiteTask_Execute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	contentRepo := &MockContentRepository{}
	notificationRepo := NewMockNotificationRepository()
	notifier := notification.NewNotifier(notificationRepo, &notification.LogPublisher{})

	task := NewScanSiteTask("news", scanTestSettings(true), time.Now().UTC(), contentRepo, notifier, 100)

	if err := task.Execute(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRecomputeSiteTask_Execute(t *testing.T) {
	lastReview := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

	c := dueContent("news", "article", lastReview, stale, nil)
	contentRepo := &MockContentRepository{contents: []database.Content{c}}

	task := NewRecomputeSiteTask("news", scanTestSettings(true), contentRepo, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	next, ok := contentRepo.setNextCalls[c.ID]
	if !ok {
		t.Fatal("Expected stale next review date to be rewritten")
	}
	expected := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if next == nil || !next.Equal(expected) {
		t.Errorf("Expected next review date %v, got %v", expected, next)
	}
}

func TestRecomputeSiteTask_Execute_RetriesFailedSave(t *testing.T) {
	lastReview := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)

	c := dueContent("news", "article", lastReview, stale, nil)
	contentRepo := &MockContentRepository{
		contents:     []database.Content{c},
		setNextFails: 1,
	}

	task := NewRecomputeSiteTask("news", scanTestSettings(true), contentRepo, 100)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, ok := contentRepo.setNextCalls[c.ID]; !ok {
		t.Error("Expected save to succeed on retry")
	}
}

func TestSyncSiteSettingsTask_Execute(t *testing.T) {
	siteRepo := &MockSiteRepository{changed: true}

	task := NewSyncSiteSettingsTask("news", scanTestSettings(true), "abc123", siteRepo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !task.SettingsChanged {
		t.Error("Expected SettingsChanged to be set when the hash differs")
	}
}
