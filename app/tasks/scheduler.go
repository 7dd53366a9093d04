package tasks

import (
	"context"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contentops/review-cycle/app/cfg"
	"github.com/contentops/review-cycle/app/database"
	"github.com/contentops/review-cycle/app/notification"
	"github.com/contentops/review-cycle/app/review"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the recurring review scan. A cron job (default daily)
// fans per-site scan tasks out over a bounded worker pool; overlapping
// ticks are serialized by the cron chain's run-lock rather than an
// internal mutex, so a tick that fires while a scan is still running is
// skipped. A configured task host restricts scanning to one instance of a
// fleet.
type Scheduler struct {
	cronEngine    *cron.Cron
	settingsCache *review.SettingsCache
	siteRepo      database.SiteRepository
	contentRepo   database.ContentRepository
	notifier      *notification.Notifier
	scanCronSpec  string
	taskHost      string
	workerCount   int
	batchSize     int
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewScheduler(settingsCache *review.SettingsCache, siteRepo database.SiteRepository,
	contentRepo database.ContentRepository, notifier *notification.Notifier) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		settingsCache: settingsCache,
		siteRepo:      siteRepo,
		contentRepo:   contentRepo,
		notifier:      notifier,
		scanCronSpec:  cfg.ScanCronSpec,
		taskHost:      cfg.TaskHost,
		workerCount:   cfg.WorkerCount,
		batchSize:     cfg.BatchSize,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (s *Scheduler) Start() error {
	s.syncSites()

	if _, err := s.cronEngine.AddFunc(s.scanCronSpec, s.runScan); err != nil {
		return err
	}

	s.cronEngine.Start()
	slog.Info("Review scan scheduled", "cron", s.scanCronSpec, "task_host", s.taskHost)
	return nil
}

func (s *Scheduler) Stop() {
	s.cancel()
	stopCtx := s.cronEngine.Stop()
	<-stopCtx.Done()
}

// TriggerScan runs one site's scan outside the cron cadence.
func (s *Scheduler) TriggerScan(siteName string) error {
	settings, err := s.settingsCache.GetSettings(siteName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	task := NewScanSiteTask(siteName, settings, now, s.contentRepo, s.notifier, s.batchSize)
	go s.executeTask(task)
	return nil
}

// syncSites registers every configured site and recomputes stored review
// dates where the settings file changed since the last run.
func (s *Scheduler) syncSites() {
	for name, settings := range s.settingsCache.GetAllSettings() {
		syncTask := NewSyncSiteSettingsTask(name, settings, s.settingsCache.GetSettingsHash(name), s.siteRepo)
		s.executeTask(syncTask)

		if syncTask.SettingsChanged {
			slog.Info("Site settings changed, recomputing review dates", "site", name)
			s.executeTask(NewRecomputeSiteTask(name, settings, s.contentRepo, s.batchSize))
		}
	}
}

// runScan is one scheduler tick: dispatch a scan task per enabled site
// over the worker pool and wait for the run to drain. Sites are
// independent, so they scan in parallel; the run itself stays serialized
// by the cron run-lock.
func (s *Scheduler) runScan() {
	if !s.isTaskHost() {
		slog.Debug("Not the configured task host, skipping scan", "task_host", s.taskHost)
		return
	}

	enabled := s.settingsCache.GetEnabledSettings()
	if len(enabled) == 0 {
		slog.Debug("No enabled site settings found")
		return
	}

	now := time.Now().UTC()
	slog.Info("Review scan started", "sites", len(enabled))

	taskQueue := make(chan TaskInterface)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskQueue {
				s.executeTask(task)
			}
		}()
	}

	for name, settings := range enabled {
		taskQueue <- NewScanSiteTask(name, settings, now, s.contentRepo, s.notifier, s.batchSize)
	}
	close(taskQueue)
	wg.Wait()

	slog.Info("Review scan finished", "sites", len(enabled), "elapsed", time.Since(now).String())
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	for {
		taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
		err := task.Execute(taskCtx)
		cancel()

		if err == nil {
			return
		}

		slog.Error("Task execution failed",
			"type", string(task.GetType()), "id", task.GetID(), "site", task.GetSiteName(),
			"retry_count", task.GetRetryCount(), "error", err)

		if !task.CanRetry() {
			slog.Error("Task failed after maximum retries",
				"type", string(task.GetType()), "id", task.GetID(),
				"max_retries", task.GetMaxRetries(), "last_error", err)
			return
		}

		task.IncrementRetryCount()
		retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry",
				"type", string(task.GetType()), "id", task.GetID())
			return
		case <-time.After(retryDelay):
		}
	}
}

// isTaskHost reports whether this instance is allowed to run the scan.
// With no task host configured every instance may run; otherwise the
// configured host must match this machine's hostname or one of its
// addresses.
func (s *Scheduler) isTaskHost() bool {
	if s.taskHost == "" {
		return true
	}

	if hostname, err := os.Hostname(); err == nil && strings.EqualFold(hostname, s.taskHost) {
		return true
	}

	allowed, err := net.LookupHost(s.taskHost)
	if err != nil {
		slog.Warn("Failed to resolve task host", "task_host", s.taskHost, "error", err)
		return false
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		slog.Warn("Failed to list interface addresses", "error", err)
		return false
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		for _, a := range allowed {
			if ipNet.IP.String() == a {
				return true
			}
		}
	}

	return false
}
