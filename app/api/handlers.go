package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/review"
	"github.com/contentops/review-cycle/app/tasks"
)

func NewHandler(settingsCache *review.SettingsCache, siteRepo database.SiteRepository,
	contentRepo database.ContentRepository, notificationRepo database.NotificationRepository,
	scheduler tasks.TaskSchedulerInterface, cmsBaseUrl string) *Handler {
	return &Handler{
		settingsCache:    settingsCache,
		siteRepo:         siteRepo,
		contentRepo:      contentRepo,
		notificationRepo: notificationRepo,
		scheduler:        scheduler,
		cmsBaseUrl:       cmsBaseUrl,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_sites"] = h.settingsCache.GetSiteCount()

	if count, err := h.notificationRepo.GetCount(); err == nil {
		health["notifications"] = count
	}

	c.JSON(http.StatusOK, health)
}

// GetContentReview reports one content item's review state: the derived
// next review date and the banner status the editorial UI should show.
func (h *Handler) GetContentReview(c *gin.Context) {
	content, ok := h.lookupContent(c, c.Param("id"))
	if !ok {
		return
	}

	response := gin.H{
		"content_id":   content.ID,
		"site":         content.Site,
		"content_type": content.ContentType,
		"label":        content.Label,
		"status":       review.StatusNone,
	}

	settings, err := h.settingsCache.GetSettings(content.Site)
	if err != nil {
		// No settings means review cycling is off for this site.
		c.JSON(http.StatusOK, response)
		return
	}

	next := review.ComputeNextReviewDate(content.Content, settings)
	if next == nil {
		next = content.NextReviewDate
	}

	response["status"] = review.Evaluate(next, time.Now().UTC(), settings.BannerWarningDurations)
	if next != nil {
		response["next_review_date"] = next.Format("2006-01-02")
	}
	if content.LastReviewDate != nil {
		response["last_review_date"] = content.LastReviewDate.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

// DismissReview marks the content as reviewed now, restarting its cycle,
// then sends the editor back to the CMS edit page.
func (h *Handler) DismissReview(c *gin.Context) {
	content, ok := h.lookupContent(c, c.Query("recordid"))
	if !ok {
		return
	}

	now := time.Now().UTC()
	review.MarkReviewed(&content.Content, now)

	if err := h.contentRepo.SetLastReviewDate(content.ID, now); err != nil {
		slog.Error("Database error", "operation", "set_last_review_date", "content_id", content.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if settings, err := h.settingsCache.GetSettings(content.Site); err == nil {
		next := review.ComputeNextReviewDate(content.Content, settings)
		if err := h.contentRepo.SetNextReviewDate(content.ID, next); err != nil {
			slog.Error("Database error", "operation", "set_next_review_date", "content_id", content.ID, "error", err)
		}
	}

	slog.Info("Review dismissed", "content_id", content.ID, "site", content.Site)
	c.Redirect(http.StatusFound, h.editUrl(content.ID, false))
}

// StartReview sends the editor to a fresh CMS draft of the content, where
// the review happens. The cycle restarts when the reviewed draft is
// published back through the publish hook.
func (h *Handler) StartReview(c *gin.Context) {
	content, ok := h.lookupContent(c, c.Query("recordid"))
	if !ok {
		return
	}

	slog.Info("Review started", "content_id", content.ID, "site", content.Site)
	c.Redirect(http.StatusFound, h.editUrl(content.ID, true))
}

// PublishContent is the CMS publish hook. It stores the item's review
// bookkeeping; a first publish counts as the initial review.
func (h *Handler) PublishContent(c *gin.Context) {
	var payload PublishPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": err.Error()})
		return
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content id"})
		return
	}

	if payload.Override != nil {
		if err := payload.Override.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid override duration", "details": err.Error()})
			return
		}
	}

	now := time.Now().UTC()

	updatedAt := payload.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	content := database.Content{
		Content: review.Content{
			ID:             id,
			Site:           payload.Site,
			ContentType:    payload.ContentType,
			Label:          payload.Label,
			UpdatedAt:      updatedAt,
			LastReviewDate: payload.LastReviewDate,
			Override:       payload.Override,
		},
		// The stored publish timestamp is what distinguishes a first
		// publish from a re-publish; the repository keeps the earliest one.
		PublishedAt: &now,
	}

	firstPublish, err := h.contentRepo.UpsertContent(content)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_content", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if firstPublish && content.LastReviewDate == nil {
		review.MarkReviewed(&content.Content, now)
		if err := h.contentRepo.SetLastReviewDate(id, now); err != nil {
			slog.Error("Database error", "operation", "set_last_review_date", "content_id", id, "error", err)
		}
	}

	// Recompute from the stored row: a re-publish payload may omit the
	// anchor this service owns, and the repository keeps it.
	if stored, err := h.contentRepo.GetContent(id); err == nil {
		content = *stored
	}

	response := gin.H{
		"content_id":    id,
		"first_publish": firstPublish,
	}

	if settings, err := h.settingsCache.GetSettings(content.Site); err == nil {
		next := review.ComputeNextReviewDate(content.Content, settings)
		if err := h.contentRepo.SetNextReviewDate(id, next); err != nil {
			slog.Error("Database error", "operation", "set_next_review_date", "content_id", id, "error", err)
		}
		if next != nil {
			response["next_review_date"] = next.Format("2006-01-02")
		}
	}

	c.JSON(http.StatusOK, response)
}

// SetContentOverride stores or clears a per-content cycle override and
// recomputes the stored next review date, since the override wins over
// type map and site default in the derivation.
func (h *Handler) SetContentOverride(c *gin.Context) {
	content, ok := h.lookupContent(c, c.Param("id"))
	if !ok {
		return
	}

	var payload OverridePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload", "details": err.Error()})
		return
	}
	if payload.Override != nil {
		if err := payload.Override.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid override duration", "details": err.Error()})
			return
		}
	}

	if err := h.contentRepo.SetOverride(content.ID, payload.Override); err != nil {
		slog.Error("Database error", "operation", "set_override", "content_id", content.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	content.Override = payload.Override

	response := gin.H{"content_id": content.ID}

	if settings, err := h.settingsCache.GetSettings(content.Site); err == nil {
		next := review.ComputeNextReviewDate(content.Content, settings)
		if err := h.contentRepo.SetNextReviewDate(content.ID, next); err != nil {
			slog.Error("Database error", "operation", "set_next_review_date", "content_id", content.ID, "error", err)
		}
		if next != nil {
			response["next_review_date"] = next.Format("2006-01-02")
		}
	}

	slog.Info("Content override updated", "content_id", content.ID, "site", content.Site)
	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListSites(c *gin.Context) {
	allSettings := h.settingsCache.GetAllSettings()

	sites := make([]map[string]interface{}, 0, len(allSettings))

	for name, settings := range allSettings {
		siteInfo := map[string]interface{}{
			"name":                   name,
			"enabled":                settings.Site.Enabled,
			"default_cycle_duration": settings.DefaultCycleDuration.String(),
			"content_type_maps":      len(settings.ContentTypeMaps),
		}

		if site, err := h.siteRepo.GetSite(name); err == nil {
			siteInfo["settings_hash"] = site.SettingsHash
			siteInfo["updated_at"] = site.UpdatedAt
		}

		if count, err := h.contentRepo.GetContentCount(name); err == nil {
			siteInfo["content_count"] = count
		}

		sites = append(sites, siteInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sites": sites,
		"total": len(sites),
	})
}

func (h *Handler) APIGetSiteNotifications(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing site name parameter"})
		return
	}

	if _, err := h.settingsCache.GetSettings(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Site settings not found"})
		return
	}

	records, err := h.notificationRepo.GetBySite(name, 100)
	if err != nil {
		slog.Error("Database error", "operation", "get_notifications", "site", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	notifications := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		info := map[string]interface{}{
			"content_id":       record.ContentID,
			"label":            record.ContentLabel,
			"last_notified_at": record.LastNotifiedAt,
		}
		if record.DueDate != nil {
			info["due_date"] = record.DueDate.Format("2006-01-02")
		}
		if record.PublishedAt != nil {
			info["published_at"] = record.PublishedAt
		}
		notifications = append(notifications, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"site":          name,
		"notifications": notifications,
		"total":         len(notifications),
	})
}

func (h *Handler) APITriggerScan(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing site name parameter"})
		return
	}

	if err := h.scheduler.TriggerScan(name); err != nil {
		slog.Error("Failed to trigger scan", "site", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Site settings not found", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scan triggered",
		"site":    name,
	})
}

func (h *Handler) APIGetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"sites": h.settingsCache.GetSiteCount(),
	}

	if sites, err := h.siteRepo.GetSites(); err == nil {
		stats["registered_sites"] = len(sites)
	}

	if count, err := h.notificationRepo.GetCount(); err == nil {
		stats["notifications"] = count
	}

	contentCounts := map[string]int{}
	for name := range h.settingsCache.GetAllSettings() {
		if count, err := h.contentRepo.GetContentCount(name); err == nil {
			contentCounts[name] = count
		}
	}
	stats["contents"] = contentCounts

	c.JSON(http.StatusOK, stats)
}

// lookupContent parses the id and loads the content row, writing the
// error response itself when either step fails.
func (h *Handler) lookupContent(c *gin.Context, rawID string) (*database.Content, bool) {
	if rawID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content id"})
		return nil, false
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content id"})
		return nil, false
	}

	content, err := h.contentRepo.GetContent(id)
	if err == database.ErrContentNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return nil, false
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	return content, true
}

func (h *Handler) editUrl(id uuid.UUID, draft bool) string {
	u := fmt.Sprintf("%s/cms/content.edit?id=%s", h.cmsBaseUrl, url.QueryEscape(id.String()))
	if draft {
		u += "&draft=true"
	}
	return u
}
