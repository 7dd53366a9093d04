package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"review_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"review_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"review_cycle" description:"Database name"`

	// Application configuration
	SitesDir     string `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory containing site settings files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	CMSBaseUrl   string `long:"cms-base-url" env:"CMS_BASE_URL" description:"Base URL of the CMS editorial UI (e.g., https://cms.example.com)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for site scans"`
	ScanCronSpec string `long:"scan-cron" env:"SCAN_CRON" default:"0 6 * * *" description:"Cron spec (UTC) for the recurring review scan"`
	BatchSize    int    `long:"batch-size" env:"BATCH_SIZE" default:"200" description:"Page size for content batch queries"`
	TaskHost     string `long:"task-host" env:"TASK_HOST" description:"Hostname allowed to run scans (empty: every instance scans)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Optional .env file for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:       raw.DBHost,
		DBPort:       raw.DBPort,
		DBUser:       raw.DBUser,
		DBPassword:   raw.DBPassword,
		DBName:       raw.DBName,
		SitesDir:     raw.SitesDir,
		Port:         raw.Port,
		CMSBaseUrl:   raw.CMSBaseUrl,
		WorkerCount:  raw.WorkerCount,
		ScanCronSpec: raw.ScanCronSpec,
		BatchSize:    raw.BatchSize,
		TaskHost:     raw.TaskHost,
		APIAccessKey: raw.APIAccessKey,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
