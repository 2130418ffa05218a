// Package process provides the application process supervisor.
package process

import (
	"context"
	"log/slog"
	"sync"

	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// Supervisor logs restart requests. Grant management treats kills as
// advisory; there is nothing to wait for.
type Supervisor struct {
	logger *slog.Logger
}

var _ capabilities.ProcessSupervisor = (*Supervisor)(nil)

// NewSupervisor creates a logging supervisor.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{logger: logger}
}

// KillUID records a restart request for every process of a uid.
func (s *Supervisor) KillUID(_ context.Context, uid int, reason string) {
	s.logger.Info("process restart requested", "uid", uid, "reason", reason)
}

// KillRequest is one recorded restart request.
type KillRequest struct {
	UID    int
	Reason string
}

// Recorder captures restart requests for inspection. It backs tests and
// dry runs.
type Recorder struct {
	mu       sync.Mutex
	requests []KillRequest
}

var _ capabilities.ProcessSupervisor = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// KillUID records the request.
func (r *Recorder) KillUID(_ context.Context, uid int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, KillRequest{UID: uid, Reason: reason})
}

// Requests returns the recorded restart requests in order.
func (r *Recorder) Requests() []KillRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]KillRequest, len(r.requests))
	copy(out, r.requests)
	return out
}
