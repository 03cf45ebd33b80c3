package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nook/nook/internal/collector"
	"github.com/nook/nook/internal/models"
	"github.com/nook/nook/internal/notifications"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("digest run already in progress")

// DocumentSaver is the part of the document store the digest service needs
type DocumentSaver interface {
	Save(ctx context.Context, content, service string, date time.Time) (string, error)
}

// Service collects items from every enabled collector and saves one
// Markdown document per service and day
type Service struct {
	store      DocumentSaver
	collectors []collector.Collector
	notifier   notifications.NotificationInterface
	location   *time.Location
	now        func() time.Time
	running    atomic.Bool
	metrics    *Metrics
	mu         sync.RWMutex
}

// Metrics describes the most recent run
type Metrics struct {
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	ItemCounts      map[string]int `json:"item_counts"`
	SavedKeys       []string       `json:"saved_keys"`
	ErrorCount      int            `json:"error_count"`
	Running         bool           `json:"running"`
}

type collectResult struct {
	service string
	items   []models.Item
	err     error
}

// NewService creates a new digest service. notifier may be nil.
func NewService(store DocumentSaver, collectors []collector.Collector, notifier notifications.NotificationInterface, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}

	return &Service{
		store:      store,
		collectors: collectors,
		notifier:   notifier,
		location:   location,
		now:        time.Now,
		metrics: &Metrics{
			ItemCounts: make(map[string]int),
		},
	}
}

// Run collects from all enabled collectors concurrently and saves today's
// document for every collector that returned items. Collector failures are
// logged and counted; save and notification failures are returned. Only one
// run executes at a time; an overlapping call returns ErrRunInProgress.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.run(ctx)
}

// Trigger starts a run in the background with the given timeout. It returns
// false without starting anything when a run is already active.
func (s *Service) Trigger(timeout time.Duration) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	go func() {
		defer s.running.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.run(ctx); err != nil {
			logrus.Errorf("Triggered digest run failed: %v", err)
		}
	}()

	return true
}

func (s *Service) run(ctx context.Context) error {
	start := s.now()
	date := start.In(s.location)
	logrus.Infof("Starting digest run for %s", date.Format("2006-01-02"))

	var wg sync.WaitGroup
	results := make(chan collectResult, len(s.collectors))

	for _, c := range s.collectors {
		if !c.Enabled() {
			logrus.Debugf("Skipping disabled collector %s", c.Name())
			continue
		}

		wg.Add(1)
		go func(c collector.Collector) {
			defer wg.Done()

			logrus.Infof("Collecting from %s", c.Name())
			items, err := c.Collect(ctx)
			results <- collectResult{service: c.Name(), items: items, err: err}
		}(c)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &models.Report{Date: date}
	itemCounts := make(map[string]int)
	var savedKeys []string
	var runErrs []error

	for result := range results {
		if result.err != nil {
			logrus.Errorf("Error collecting from %s: %v", result.service, result.err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", result.service, result.err))
			continue
		}

		itemCounts[result.service] = len(result.items)
		if len(result.items) == 0 {
			logrus.Infof("No items from %s, skipping document", result.service)
			continue
		}

		digest := models.Digest{
			Service: result.service,
			Date:    date,
			Items:   result.items,
		}
		digest.Content = RenderMarkdown(digest)

		key, err := s.store.Save(ctx, digest.Content, digest.Service, digest.Date)
		if err != nil {
			logrus.Errorf("Failed to save %s digest: %v", result.service, err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", result.service, err))
			runErrs = append(runErrs, fmt.Errorf("%s: %w", result.service, err))
			continue
		}

		logrus.Infof("Saved %d items from %s to %s", len(result.items), result.service, key)
		digest.Key = key
		report.Digests = append(report.Digests, digest)
		savedKeys = append(savedKeys, key)
	}

	report.ErrorCount = len(report.Errors)
	report.GeneratedAt = s.now()

	errorCount := report.ErrorCount
	if s.notifier != nil {
		if err := s.notifier.SendReport(report); err != nil {
			logrus.Errorf("Failed to send report: %v", err)
			runErrs = append(runErrs, fmt.Errorf("notification: %w", err))
			errorCount++
		}
	}

	s.updateMetrics(itemCounts, savedKeys, s.now().Sub(start), errorCount)

	if len(runErrs) > 0 {
		return fmt.Errorf("digest run failed: %w", errors.Join(runErrs...))
	}

	logrus.Infof("Digest run completed in %v", s.now().Sub(start))
	return nil
}

func (s *Service) updateMetrics(itemCounts map[string]int, savedKeys []string, duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.ItemCounts = itemCounts
	s.metrics.SavedKeys = savedKeys
	s.metrics.ErrorCount = errorCount
}

// Snapshot returns a copy of the metrics of the most recent run
func (s *Service) Snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := *s.metrics
	snapshot.ItemCounts = make(map[string]int, len(s.metrics.ItemCounts))
	for k, v := range s.metrics.ItemCounts {
		snapshot.ItemCounts[k] = v
	}
	snapshot.SavedKeys = append([]string(nil), s.metrics.SavedKeys...)
	snapshot.Running = s.running.Load()
	return snapshot
}

// GetMetrics returns the metrics of the most recent run as JSON
func (s *Service) GetMetrics() string {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(data)
}
