package review

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrDuplicateContentType is returned when a site's settings map the same
// content type more than once.
var ErrDuplicateContentType = fmt.Errorf("content type maps must not contain duplicate content types")

type SettingsCache struct {
	sitesDir string
	cache    map[string]*SiteSettings
	hashes   map[string]string
	mu       sync.RWMutex
}

func NewSettingsCache(sitesDir string) *SettingsCache {
	return &SettingsCache{
		sitesDir: sitesDir,
		cache:    make(map[string]*SiteSettings),
		hashes:   make(map[string]string),
	}
}

func (sc *SettingsCache) Run() error {
	if _, err := os.Stat(sc.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		settings, err := sc.LoadSettings(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Site settings loaded",
			"site", settings.Site.Name,
			"enabled", settings.Site.Enabled,
			"default_cycle", settings.DefaultCycleDuration.String(),
			"type_maps", len(settings.ContentTypeMaps))
	}

	return nil
}

func (sc *SettingsCache) LoadSettings(settingsFile string) (*SiteSettings, error) {
	data, err := os.ReadFile(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var settings SiteSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := sc.validateSettings(&settings); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", settingsFile, err)
	}

	digest := sha256.Sum256(data)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[settings.Site.Name] = &settings
	sc.hashes[settings.Site.Name] = hex.EncodeToString(digest[:])

	return &settings, nil
}

func (sc *SettingsCache) GetSettings(siteName string) (*SiteSettings, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	settings, ok := sc.cache[siteName]
	if !ok {
		return nil, fmt.Errorf("site settings for '%s' not found", siteName)
	}
	return settings, nil
}

func (sc *SettingsCache) GetAllSettings() map[string]*SiteSettings {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	settingsCopy := make(map[string]*SiteSettings, len(sc.cache))
	for k, v := range sc.cache {
		settingsCopy[k] = v
	}
	return settingsCopy
}

func (sc *SettingsCache) GetEnabledSettings() map[string]*SiteSettings {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	enabled := make(map[string]*SiteSettings)
	for k, v := range sc.cache {
		if v.Site.Enabled {
			enabled[k] = v
		}
	}
	return enabled
}

// GetSettingsHash returns a stable digest of the site's raw settings file,
// used to detect settings changes between runs.
func (sc *SettingsCache) GetSettingsHash(siteName string) string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.hashes[siteName]
}

func (sc *SettingsCache) GetSiteCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SettingsCache) validateSettings(settings *SiteSettings) error {
	if settings == nil {
		return fmt.Errorf("settings is nil")
	}

	if settings.Site.Name == "" {
		return fmt.Errorf("site name is required")
	}

	if err := settings.DefaultCycleDuration.Validate(); err != nil {
		return fmt.Errorf("default cycle duration: %w", err)
	}

	if len(settings.ContentTypeMaps) == 0 {
		return fmt.Errorf("at least one content type map is required")
	}

	seen := make(map[string]bool)
	for i, m := range settings.ContentTypeMaps {
		if m.ContentType == "" {
			return fmt.Errorf("content type map at index %d has no content type", i)
		}
		if seen[m.ContentType] {
			return fmt.Errorf("%w: %s", ErrDuplicateContentType, m.ContentType)
		}
		seen[m.ContentType] = true

		if !m.CycleDuration.IsZero() {
			if err := m.CycleDuration.Validate(); err != nil {
				return fmt.Errorf("cycle duration for %s: %w", m.ContentType, err)
			}
		}
		if !m.DueWarningDuration.IsZero() {
			if err := m.DueWarningDuration.Validate(); err != nil {
				return fmt.Errorf("due warning duration for %s: %w", m.ContentType, err)
			}
		}
	}

	for i, d := range settings.BannerWarningDurations {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("banner warning duration at index %d: %w", i, err)
		}
	}

	for i, d := range settings.NotificationWarningTimes {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("notification warning time at index %d: %w", i, err)
		}
	}

	return nil
}
