package checker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
)

type tcpChecker struct {
	svc config.Service
}

func newTCPChecker(svc config.Service) *tcpChecker {
	return &tcpChecker{svc: svc}
}

func (c *tcpChecker) Check(ctx context.Context) health.Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: c.svc.Timeout.Duration}
	conn, err := dialer.DialContext(ctx, "tcp", c.svc.Target)
	latency := time.Since(start)
	if err != nil {
		return health.Result{
			Status:    health.StatusError,
			Message:   fmt.Sprintf("dial tcp %s: %v", c.svc.Target, err),
			Timestamp: start,
			Latency:   latency,
		}
	}
	conn.Close()

	return health.Result{
		Status:    health.StatusOK,
		Message:   fmt.Sprintf("%s is reachable", c.svc.DisplayName),
		Timestamp: start,
		Latency:   latency,
	}
}
