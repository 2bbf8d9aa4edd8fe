package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/ragcore/internal/llm"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/worker"
)

// Sampler generates several answers to one prompt concurrently, each at its
// own temperature.
type Sampler struct {
	provider llm.Provider
	limiter  *worker.Limiter
	workers  int
	cfg      model.ConsistencyConfig
	logger   *slog.Logger
	now      func() time.Time
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithLimiter rate-limits generations under the provider's name.
func WithLimiter(l *worker.Limiter) SamplerOption {
	return func(s *Sampler) { s.limiter = l }
}

// WithWorkers bounds concurrent generations. Defaults to the sample count.
func WithWorkers(n int) SamplerOption {
	return func(s *Sampler) { s.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SamplerOption {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSampler creates a sampler for provider.
func NewSampler(provider llm.Provider, cfg model.ConsistencyConfig, opts ...SamplerOption) *Sampler {
	if cfg.NumSamples <= 0 {
		cfg.NumSamples = 1
	}
	s := &Sampler{
		provider: provider,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = cfg.NumSamples
	}
	return s
}

// Sample runs NumSamples generations of req at temperatures spread around
// BaseTemperature. A failed sample is logged and left out; the call fails
// with model.ErrAllSamplesFailed only when every sample fails. Candidates are
// returned in temperature order.
func (s *Sampler) Sample(ctx context.Context, req llm.GenerateRequest) ([]model.ResponseCandidate, error) {
	if s.provider == nil {
		return nil, model.ErrLLMUnavailable
	}

	temps := GenerateTemperatures(s.cfg.BaseTemperature, s.cfg.NumSamples, s.cfg.TemperatureVariance)
	tasks := make([]worker.Task[model.ResponseCandidate], len(temps))
	for i, temp := range temps {
		r := req
		r.Temperature = temp
		tasks[i] = func(ctx context.Context) (model.ResponseCandidate, error) {
			return s.generate(ctx, r)
		}
	}

	outcomes := worker.RunAll(ctx, s.workers, s.limiter, s.provider.Name(), tasks)

	candidates := make([]model.ResponseCandidate, 0, len(outcomes))
	var lastErr error
	for _, out := range outcomes {
		if out.Err != nil {
			lastErr = out.Err
			s.logger.Warn("consistency sample failed",
				"provider", s.provider.Name(),
				"sample", out.Index,
				"temperature", temps[out.Index],
				"error", out.Err,
			)
			continue
		}
		candidates = append(candidates, out.Value)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w (%d samples): last error: %v", model.ErrAllSamplesFailed, len(outcomes), lastErr)
	}
	return candidates, nil
}

func (s *Sampler) generate(ctx context.Context, req llm.GenerateRequest) (model.ResponseCandidate, error) {
	start := s.now()
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return model.ResponseCandidate{}, err
	}

	cites := resp.CitedIDs
	if cites == nil {
		cites = ExtractCitationIDs(resp.Text)
	}
	return model.ResponseCandidate{
		Answer:           resp.Text,
		Citations:        cites,
		Temperature:      req.Temperature,
		GenerationTimeMs: s.now().Sub(start).Milliseconds(),
	}, nil
}
