// Package metrics counts auth operations for Prometheus.
package metrics

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess      = "success"
	ResultNotFound     = "not_found"
	ResultConflict     = "conflict"
	ResultUnauthorized = "unauthorized"
	ResultInvalid      = "invalid"
	ResultExpired      = "expired"
	ResultError        = "error"
)

// Recorder counts finished auth operations by result.
type Recorder struct {
	ops *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them with reg. A nil reg
// leaves them unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authkeeper",
			Name:      "auth_operations_total",
			Help:      "Auth operations by outcome.",
		}, []string{"operation", "result"}),
	}
	if reg != nil {
		reg.MustRegister(r.ops)
	}
	return r
}

// Observe counts one call of op finishing with err. A nil receiver is a no-op.
func (r *Recorder) Observe(op string, err error) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(op, Result(err)).Inc()
}

// Result maps an error onto the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, common.ErrorNotFound):
		return ResultNotFound
	case errors.Is(err, common.ErrorConflict):
		return ResultConflict
	case errors.Is(err, common.ErrorUnauthorized):
		return ResultUnauthorized
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrInvalidToken):
		return ResultInvalid
	case errors.Is(err, common.ErrTokenExpired):
		return ResultExpired
	default:
		return ResultError
	}
}
