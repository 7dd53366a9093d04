package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SitesDir     string
	Port         string
	CMSBaseUrl   string
	WorkerCount  int
	ScanCronSpec string
	BatchSize    int
	TaskHost     string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
