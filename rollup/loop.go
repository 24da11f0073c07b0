package rollup

import (
	"context"
	"errors"
	"time"

	"github.com/celestiaorg/zk-age-rollup/ledger"
	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/rs/zerolog"
)

const (
	reasonUnknownType     = "unknown_request_type"
	reasonNegativeVerdict = "negative_verdict"
)

// PayloadVerifier verifies a hex proof payload and returns the committed
// verdict.
type PayloadVerifier interface {
	VerifyHex(payload string) (bool, error)
}

// Recorder persists the outcome of each handled request.
type Recorder interface {
	Append(rec *ledger.Record) error
}

// Loop reports verdicts to the coordinator and handles the requests it
// returns, one at a time.
type Loop struct {
	coordinator Coordinator
	verifier    PayloadVerifier
	recorder    Recorder
	metrics     *Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithRecorder records every handled request in r.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithMetrics reports to m instead of unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// NewLoop returns a dispatch loop over coordinator and verifier.
func NewLoop(coordinator Coordinator, verifier PayloadVerifier, logger zerolog.Logger, opts ...Option) *Loop {
	l := &Loop{
		coordinator: coordinator,
		verifier:    verifier,
		logger:      logger.With().Str("module", "rollup").Logger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = NewMetrics(nil)
	}
	return l
}

// Run drives the loop until ctx is cancelled or the coordinator transport
// fails. The first finish call reports StatusAccept.
func (l *Loop) Run(ctx context.Context) error {
	status := StatusAccept
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := l.Step(ctx, status)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		status = next
	}
}

// Step reports status, handles the returned request if any, and returns the
// status to report next. Only transport failures and malformed responses
// are returned as errors.
func (l *Loop) Step(ctx context.Context, status Status) (Status, error) {
	l.logger.Debug().Str("status", string(status)).Msg("sending finish")

	req, err := l.coordinator.Finish(ctx, status)
	switch {
	case errors.Is(err, ErrMissingField):
		l.logger.Error().Err(err).Msg("invalid rollup request")
		return l.complete(req, StatusReject, proof.Reason(err)), nil
	case err != nil:
		return status, err
	case req == nil:
		l.logger.Debug().Msg("no pending rollup request, trying again")
		return status, nil
	}
	return l.Handle(req), nil
}

// Handle routes req to its handler and returns the resulting status.
// Unknown request types are rejected without invoking a handler.
func (l *Loop) Handle(req *Request) Status {
	var (
		status Status
		err    error
	)
	switch req.Type {
	case AdvanceState:
		status, err = l.handleAdvance(req)
	case InspectState:
		status, err = l.handleInspect(req)
	default:
		l.logger.Error().Str("request_type", string(req.Type)).Msg("unknown request type")
		return l.complete(req, StatusReject, reasonUnknownType)
	}

	if err != nil {
		l.logger.Info().Err(err).Str("request_type", string(req.Type)).Msg("request rejected")
		return l.complete(req, StatusReject, proof.Reason(err))
	}
	if status == StatusReject {
		return l.complete(req, status, reasonNegativeVerdict)
	}
	return l.complete(req, status, "")
}

// handleAdvance accepts the request iff its payload verifies to a true
// verdict.
func (l *Loop) handleAdvance(req *Request) (Status, error) {
	payload, err := req.Payload()
	if err != nil {
		return StatusReject, err
	}
	l.logger.Info().Int("payload_hex_len", len(payload)).Msg("received advance request")

	start := l.now()
	verdict, err := l.verifier.VerifyHex(payload)
	l.metrics.Verification.Observe(l.now().Sub(start).Seconds())
	if err != nil {
		return StatusReject, err
	}
	if !verdict {
		return StatusReject, nil
	}
	l.logger.Info().Msg("proof verified")
	return StatusAccept, nil
}

// handleInspect is a read-only probe. It requires a payload but performs no
// verification.
func (l *Loop) handleInspect(req *Request) (Status, error) {
	payload, err := req.Payload()
	if err != nil {
		return StatusReject, err
	}
	l.logger.Info().Int("payload_hex_len", len(payload)).Msg("received inspect request")
	return StatusAccept, nil
}

// complete accounts for a handled request and returns status.
func (l *Loop) complete(req *Request, status Status, reason string) Status {
	var requestType RequestType
	if req != nil {
		requestType = req.Type
	}
	l.metrics.Requests.WithLabelValues(string(requestType), string(status)).Inc()
	if status == StatusReject {
		l.metrics.Rejections.WithLabelValues(reason).Inc()
	}

	if l.recorder == nil {
		return status
	}
	rec := &ledger.Record{
		RequestType: string(requestType),
		Status:      string(status),
		Reason:      reason,
		ProcessedAt: l.now().UTC(),
	}
	if req != nil {
		if md, ok := req.Metadata(); ok {
			index := md.InputIndex
			rec.InputIndex = &index
		}
	}
	if err := l.recorder.Append(rec); err != nil {
		l.logger.Error().Err(err).Msg("failed to record verdict")
	}
	return status
}
