package health

import "time"

// Status represents the health state of a monitored service.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// Failing reports whether the status counts toward consecutive-failure
// alerting. OK and UNKNOWN never do.
func (s Status) Failing() bool {
	return s == StatusError || s == StatusWarning
}

// Result is the outcome of a single health check.
type Result struct {
	Status    Status
	Message   string
	Timestamp time.Time
	Latency   time.Duration
	Extra     map[string]any
}

// Summary is the per-status tally across a service's retained history.
type Summary struct {
	OK      int `json:"ok"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
	Unknown int `json:"unknown"`
}

func (s *Summary) add(st Status) {
	switch st {
	case StatusOK:
		s.OK++
	case StatusWarning:
		s.Warning++
	case StatusError:
		s.Error++
	default:
		s.Unknown++
	}
}

// ServiceStatus is the queryable snapshot for one service: its most
// recent result plus a summary of retained history.
type ServiceStatus struct {
	ServiceID   string
	DisplayName string
	ServiceURL  string
	Result      Result
	Summary     Summary
	HistorySize int
}

// SystemStatus is the aggregate snapshot across all registered services.
type SystemStatus struct {
	Status       Status
	Timestamp    time.Time
	Services     map[string]ServiceStatus
	ServiceCount int
}

// WorstStatus reduces a set of statuses to the single worst one with
// precedence ERROR > WARNING > OK. UNKNOWN wins only when every status
// is UNKNOWN; otherwise UNKNOWN entries are ignored. An empty set is
// UNKNOWN.
func WorstStatus(statuses []Status) Status {
	if len(statuses) == 0 {
		return StatusUnknown
	}
	unknown := 0
	worst := StatusOK
	for _, st := range statuses {
		switch st {
		case StatusError:
			return StatusError
		case StatusWarning:
			worst = StatusWarning
		case StatusUnknown:
			unknown++
		}
	}
	if unknown == len(statuses) {
		return StatusUnknown
	}
	return worst
}
