package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/GoPolymarket/schemascope/internal/model"
	"github.com/GoPolymarket/schemascope/internal/pkg/logger"
	"github.com/GoPolymarket/schemascope/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	OutcomeEmitted   = "emitted"
	OutcomeSuppress  = "suppressed"
	OutcomeThrottled = "throttled"
	OutcomeDropped   = "dropped"
	OutcomeCancelled = "cancelled"
)

type DiagnosticOptions struct {
	BufferSize   int
	RecentMax    int
	Pretty       bool
	MaxPerSecond float64 // <= 0 disables throttling
	Burst        int
}

// DiagnosticService decides, per completed request, whether a record is
// produced, and delivers it to the sink off the request path.
type DiagnosticService struct {
	assembler *Assembler
	sink      Sink
	recent    *recentBuffer
	hub       *Hub
	limiter   *rate.Limiter
	pretty    bool

	mu     sync.RWMutex
	closed bool
	queue  chan model.DiagnosticRecord
	done   chan struct{}
}

func NewDiagnosticService(asm *Assembler, sink Sink, hub *Hub, opts DiagnosticOptions) *DiagnosticService {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	svc := &DiagnosticService{
		assembler: asm,
		sink:      sink,
		recent:    newRecentBuffer(opts.RecentMax),
		hub:       hub,
		pretty:    opts.Pretty,
		queue:     make(chan model.DiagnosticRecord, opts.BufferSize),
		done:      make(chan struct{}),
	}
	if opts.MaxPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		svc.limiter = rate.NewLimiter(rate.Limit(opts.MaxPerSecond), burst)
	}

	go svc.process()
	return svc
}

// Complete is called exactly once per request after the response is final.
// It reports the record and whether it was accepted for emission. It never
// blocks on the sink and never returns an error to the HTTP layer.
func (s *DiagnosticService) Complete(ctx context.Context, in Completion) (model.DiagnosticRecord, bool) {
	if ctx != nil && ctx.Err() != nil {
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeCancelled).Inc()
		return model.DiagnosticRecord{}, false
	}
	if !ShouldEmit(in.Method, in.Status) {
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeSuppress).Inc()
		return model.DiagnosticRecord{}, false
	}
	if s.limiter != nil && !s.limiter.Allow() {
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeThrottled).Inc()
		return model.DiagnosticRecord{}, false
	}

	rec := s.assembler.Assemble(in)
	for _, e := range rec.ValidationErrors.Entries {
		metrics.ValidationFieldFailures.WithLabelValues(e.Field, e.ExpectedType).Inc()
	}
	s.recent.Add(rec)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeDropped).Inc()
		return rec, false
	}
	select {
	case s.queue <- rec:
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeEmitted).Inc()
		return rec, true
	default:
		metrics.DiagnosticsTotal.WithLabelValues(OutcomeDropped).Inc()
		logger.Ctx(ctx).Warn("diagnostic buffer full, dropping record", "method", rec.Method, "uri", rec.URI)
		return rec, false
	}
}

// Recent lists the newest records held in memory, newest first.
func (s *DiagnosticService) Recent(filter RecentFilter) []model.DiagnosticRecord {
	return s.recent.List(filter)
}

func (s *DiagnosticService) Hub() *Hub {
	return s.hub
}

func (s *DiagnosticService) process() {
	defer close(s.done)
	for rec := range s.queue {
		text, err := Encode(rec, s.pretty)
		if err != nil {
			logger.Warn("failed to encode diagnostic record", "request_id", rec.RequestID, "error", err)
			continue
		}
		if s.sink != nil {
			if err := s.sink.Write(text); err != nil {
				metrics.SinkErrors.WithLabelValues(sinkName(s.sink)).Inc()
				logger.Warn("failed to write diagnostic record", "request_id", rec.RequestID, "error", err)
			}
		}
		if s.hub != nil {
			s.hub.Publish(rec)
		}
	}
}

// Close stops accepting records and waits for queued ones to be written.
func (s *DiagnosticService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

// Encode serializes a record the way sinks receive it.
func Encode(rec model.DiagnosticRecord, pretty bool) (string, error) {
	var (
		raw []byte
		err error
	)
	if pretty {
		raw, err = json.MarshalIndent(rec, "", "  ")
	} else {
		raw, err = json.Marshal(rec)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
