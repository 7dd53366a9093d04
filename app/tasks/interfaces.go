package tasks

// TaskSchedulerInterface defines the interface for the background review
// scan scheduler: cron-driven scans plus on-demand per-site triggers from
// the API layer.
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	TriggerScan(siteName string) error
}
