package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:         "8080",
		CMSBaseUrl:   "https://cms.example.com",
		WorkerCount:  5,
		ScanCronSpec: "0 6 * * *",
		BatchSize:    200,
		TaskHost:     "worker-1",
		APIAccessKey: "test-key",
		Version:      "test-version",
		SitesDir:     "./sites",
		DBHost:       "localhost",
		DBPort:       "5432",
		DBUser:       "test_user",
		DBPassword:   "test_password",
		DBName:       "test_db",
		Timezone:     "UTC",
		Debug:        true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.CMSBaseUrl != "https://cms.example.com" {
		t.Errorf("Expected CMS base URL 'https://cms.example.com', got '%s'", cfg.CMSBaseUrl)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.ScanCronSpec != "0 6 * * *" {
		t.Errorf("Expected scan cron '0 6 * * *', got '%s'", cfg.ScanCronSpec)
	}
	if cfg.BatchSize != 200 {
		t.Errorf("Expected batch size 200, got %d", cfg.BatchSize)
	}
	if cfg.TaskHost != "worker-1" {
		t.Errorf("Expected task host 'worker-1', got '%s'", cfg.TaskHost)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.SitesDir != "./sites" {
		t.Errorf("Expected sites dir './sites', got '%s'", cfg.SitesDir)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("Expected DB host 'localhost', got '%s'", cfg.DBHost)
	}
	if cfg.DBName != "test_db" {
		t.Errorf("Expected DB name 'test_db', got '%s'", cfg.DBName)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
