package health

// alertFor decides whether a result crosses the alert threshold. Caller
// must hold m.mu. Firing is level-triggered: the consecutive-failure
// count is re-derived from history on every evaluation, so a service
// that stays over threshold re-fires each pass. Handlers are expected
// to throttle repeats themselves (the webhook handler carries a
// per-service cooldown).
func (m *Monitor) alertFor(serviceID string, res Result) (Alert, bool) {
	if !res.Status.Failing() {
		return Alert{}, false
	}
	rb, ok := m.history[serviceID]
	if !ok {
		return Alert{}, false
	}
	count := rb.consecutiveFailures()
	if count < m.opts.AlertThreshold {
		return Alert{}, false
	}
	reg := m.registrations[serviceID]
	return Alert{
		ServiceID:    serviceID,
		DisplayName:  reg.DisplayName,
		Status:       res.Status,
		Message:      res.Message,
		FailureCount: count,
		LastCheck:    res,
	}, true
}

// fireAlert invokes every registered handler with the alert. Handlers
// run outside the monitor lock and are isolated from each other: a
// panicking handler is logged and the rest still run.
func (m *Monitor) fireAlert(a Alert) {
	m.logger.Warn("service health alert",
		"service", a.ServiceID,
		"status", a.Status,
		"failures", a.FailureCount,
		"message", a.Message,
	)

	m.mu.Lock()
	handlers := make([]AlertHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		m.invokeHandler(h, a)
	}
}

func (m *Monitor) invokeHandler(h AlertHandler, a Alert) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert handler panicked", "service", a.ServiceID, "panic", r)
		}
	}()
	h(a.ServiceID, a)
}
