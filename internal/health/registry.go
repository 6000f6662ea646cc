package health

import "context"

// CheckFunc probes one dependency's current health. It may block on
// network I/O; the monitor bounds it with a per-check timeout. A panic
// inside a CheckFunc is converted to an ERROR result, never propagated.
type CheckFunc func(ctx context.Context) Result

// Registration describes one monitored service.
type Registration struct {
	ServiceID   string
	DisplayName string
	ServiceURL  string
	Check       CheckFunc
}

// Alert is the data handed to alert handlers when a service crosses the
// consecutive-failure threshold.
type Alert struct {
	ServiceID    string
	DisplayName  string
	Status       Status
	Message      string
	FailureCount int
	LastCheck    Result
}

// AlertHandler receives alerts. A panic inside a handler is recovered
// and logged; it never reaches the monitor or other handlers.
type AlertHandler func(serviceID string, alert Alert)

// Register adds a health check. It returns ErrDuplicateService if the
// id is already registered; the registry never shrinks.
func (m *Monitor) Register(reg Registration) error {
	if reg.ServiceID == "" {
		return errEmptyServiceID
	}
	if reg.Check == nil {
		return errNilCheckFunc
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[reg.ServiceID]; ok {
		return ErrDuplicateService
	}
	m.registrations[reg.ServiceID] = reg
	m.order = append(m.order, reg.ServiceID)
	m.history[reg.ServiceID] = newRingBuffer(m.opts.HistorySize)
	m.logger.Info("registered health check", "service", reg.ServiceID, "display_name", reg.DisplayName)
	return nil
}

// RegisterAlertHandler appends a handler invoked on every alert, in
// registration order.
func (m *Monitor) RegisterAlertHandler(handler AlertHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// ServiceIDs returns the registered ids in registration order.
func (m *Monitor) ServiceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}
