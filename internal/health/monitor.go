// Package health implements background health monitoring of external
// dependencies: registered checks run concurrently on a fixed cadence,
// recent results are retained per service in a bounded history, and
// sustained failures raise alerts through registered handlers.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultCheckInterval   = 5 * time.Minute
	DefaultHistorySize     = 100
	DefaultAlertThreshold  = 3
	DefaultCacheTTL        = 60 * time.Second
	DefaultCheckTimeout    = 10 * time.Second
	DefaultWorkers         = 5
	DefaultShutdownTimeout = 5 * time.Second
)

// Options configures a Monitor. Zero values take the package defaults.
type Options struct {
	CheckInterval   time.Duration
	HistorySize     int
	AlertThreshold  int
	CacheTTL        time.Duration
	CheckTimeout    time.Duration
	Workers         int
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultCheckInterval
	}
	if o.HistorySize <= 0 {
		o.HistorySize = DefaultHistorySize
	}
	if o.AlertThreshold <= 0 {
		o.AlertThreshold = DefaultAlertThreshold
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.CheckTimeout <= 0 {
		o.CheckTimeout = DefaultCheckTimeout
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Monitor runs registered health checks on a background schedule and
// answers status queries. All shared state (registry, history, cache,
// handler list) is guarded by a single mutex; alert handlers are always
// invoked with the mutex released.
type Monitor struct {
	opts   Options
	logger *slog.Logger

	mu            sync.Mutex
	registrations map[string]Registration
	order         []string
	history       map[string]*ringBuffer
	cache         map[string]cachedResult
	handlers      []AlertHandler
	running       bool
	stopCh        chan struct{}
	done          chan struct{}
}

// New creates a Monitor. Pass a zero Options for defaults.
func New(opts Options) *Monitor {
	opts.applyDefaults()
	return &Monitor{
		opts:          opts,
		logger:        opts.Logger,
		registrations: make(map[string]Registration),
		history:       make(map[string]*ringBuffer),
		cache:         make(map[string]cachedResult),
	}
}

// Start spawns the background scheduling loop and returns immediately.
// It is a no-op if monitoring is already running.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("monitoring already running")
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	stopCh, done := m.stopCh, m.done
	m.mu.Unlock()

	go m.loop(stopCh, done)
	m.logger.Info("health monitoring started", "interval", m.opts.CheckInterval)
}

// Stop signals the scheduling loop to exit and waits up to the
// configured shutdown timeout. An in-flight pass is allowed to finish
// (bounded by per-check timeouts); if the loop does not exit in time it
// is abandoned with a warning. No new pass starts after Stop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Warn("monitoring not running")
		return
	}
	m.running = false
	stopCh, done := m.stopCh, m.done
	m.mu.Unlock()

	close(stopCh)
	select {
	case <-done:
		m.logger.Info("health monitoring stopped")
	case <-time.After(m.opts.ShutdownTimeout):
		m.logger.Warn("monitoring loop did not exit in time, abandoning",
			"timeout", m.opts.ShutdownTimeout)
	}
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// loop drives the fixed-cadence schedule: one pass immediately, then
// one pass per interval. The next slot is computed at wake time, so a
// slow pass never stretches the cadence beyond one interval.
func (m *Monitor) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	m.RunHealthChecks(ctx)

	next := time.Now().Add(m.opts.CheckInterval)
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-timer.C:
		}
		next = time.Now().Add(m.opts.CheckInterval)
		m.RunHealthChecks(ctx)
		timer.Reset(time.Until(next))
	}
}

// RunHealthChecks executes one full pass: cached results younger than
// the TTL are reused, the rest run concurrently on the bounded worker
// pool. Fresh results are appended to history and cached; every result
// of the pass is alert-evaluated. Returns service id → result.
func (m *Monitor) RunHealthChecks(ctx context.Context) map[string]Result {
	m.mu.Lock()
	now := time.Now()
	results := make(map[string]Result, len(m.order))
	var jobs []Registration
	var cachedIDs []string
	for _, id := range m.order {
		if c, ok := m.cache[id]; ok && c.fresh(now, m.opts.CacheTTL) {
			results[id] = c.result
			cachedIDs = append(cachedIDs, id)
			continue
		}
		jobs = append(jobs, m.registrations[id])
	}
	m.mu.Unlock()

	type completion struct {
		id  string
		res Result
	}
	compCh := make(chan completion)
	sem := make(chan struct{}, m.opts.Workers)
	var wg sync.WaitGroup
	for _, reg := range jobs {
		wg.Add(1)
		go func(reg Registration) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			compCh <- completion{reg.ServiceID, m.executeCheck(ctx, reg)}
		}(reg)
	}
	go func() {
		wg.Wait()
		close(compCh)
	}()

	// Append fresh results in completion order and collect pending
	// alerts; handlers fire only after the lock is released.
	var alerts []Alert
	for c := range compCh {
		m.mu.Lock()
		if rb, ok := m.history[c.id]; ok {
			rb.push(c.res)
		}
		m.cache[c.id] = cachedResult{capturedAt: time.Now(), result: c.res}
		if a, ok := m.alertFor(c.id, c.res); ok {
			alerts = append(alerts, a)
		}
		m.mu.Unlock()
		results[c.id] = c.res
	}

	m.mu.Lock()
	for _, id := range cachedIDs {
		if a, ok := m.alertFor(id, results[id]); ok {
			alerts = append(alerts, a)
		}
	}
	m.mu.Unlock()

	for _, a := range alerts {
		m.fireAlert(a)
	}
	return results
}

// executeCheck runs one check function with the per-check timeout and
// panic recovery. A timeout or panic becomes an ERROR result; the stuck
// check goroutine is abandoned (buffered channels let it finish later
// without blocking).
func (m *Monitor) executeCheck(ctx context.Context, reg Registration) Result {
	ctx, cancel := context.WithTimeout(ctx, m.opts.CheckTimeout)
	defer cancel()

	resCh := make(chan Result, 1)
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- &CheckError{ServiceID: reg.ServiceID, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		resCh <- reg.Check(ctx)
	}()

	select {
	case res := <-resCh:
		if res.Timestamp.IsZero() {
			res.Timestamp = time.Now()
		}
		if res.Status == "" {
			res.Status = StatusUnknown
		}
		return res
	case err := <-errCh:
		m.logger.Error("health check failed", "service", reg.ServiceID, "error", err)
		return Result{Status: StatusError, Message: err.Error(), Timestamp: time.Now()}
	case <-ctx.Done():
		err := &CheckError{ServiceID: reg.ServiceID, Err: ErrCheckTimeout}
		m.logger.Warn("health check timed out",
			"service", reg.ServiceID, "timeout", m.opts.CheckTimeout)
		return Result{Status: StatusError, Message: err.Error(), Timestamp: time.Now()}
	}
}

// ServiceStatus returns the latest result and history summary for one
// service, or an UNKNOWN placeholder if the service is unregistered or
// has no history yet.
func (m *Monitor) ServiceStatus(serviceID string) ServiceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serviceStatusLocked(serviceID)
}

func (m *Monitor) serviceStatusLocked(serviceID string) ServiceStatus {
	reg, ok := m.registrations[serviceID]
	if !ok {
		return ServiceStatus{
			ServiceID: serviceID,
			Result: Result{
				Status:    StatusUnknown,
				Message:   fmt.Sprintf("unknown service: %s", serviceID),
				Timestamp: time.Now(),
			},
		}
	}
	rb := m.history[serviceID]
	latest, ok := rb.latest()
	if !ok {
		return ServiceStatus{
			ServiceID:   serviceID,
			DisplayName: reg.DisplayName,
			ServiceURL:  reg.ServiceURL,
			Result: Result{
				Status:    StatusUnknown,
				Message:   fmt.Sprintf("no health data for service: %s", serviceID),
				Timestamp: time.Now(),
			},
		}
	}
	var sum Summary
	for _, r := range rb.list() {
		sum.add(r.Status)
	}
	return ServiceStatus{
		ServiceID:   serviceID,
		DisplayName: reg.DisplayName,
		ServiceURL:  reg.ServiceURL,
		Result:      latest,
		Summary:     sum,
		HistorySize: rb.len(),
	}
}

// AllServiceStatuses maps every registered service id through
// ServiceStatus.
func (m *Monitor) AllServiceStatuses() map[string]ServiceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ServiceStatus, len(m.order))
	for _, id := range m.order {
		out[id] = m.serviceStatusLocked(id)
	}
	return out
}

// OverallStatus reduces all individual statuses to the single worst one
// (ERROR > WARNING > OK; UNKNOWN only when every service is UNKNOWN).
func (m *Monitor) OverallStatus() SystemStatus {
	services := m.AllServiceStatuses()
	statuses := make([]Status, 0, len(services))
	for _, s := range services {
		statuses = append(statuses, s.Result.Status)
	}
	return SystemStatus{
		Status:       WorstStatus(statuses),
		Timestamp:    time.Now(),
		Services:     services,
		ServiceCount: len(services),
	}
}

// History returns the retained results for a service, oldest first.
func (m *Monitor) History(serviceID string) []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	rb, ok := m.history[serviceID]
	if !ok {
		return nil
	}
	return rb.list()
}
