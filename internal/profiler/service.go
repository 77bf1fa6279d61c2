// Package profiler turns CRM inputs into prompts, calls a hosted Gemini model
// with a response schema, and parses the reply into typed results.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 1
)

// Options tunes a Service. Zero values fall back to the defaults above;
// a negative MaxRetries disables retries.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	Observer   Observer
}

type Service struct {
	gen        Generator
	timeout    time.Duration
	maxRetries int
	observer   Observer
	now        func() time.Time
}

func NewService(gen Generator, opts Options) *Service {
	s := &Service{
		gen:        gen,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		observer:   opts.Observer,
		now:        time.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	if s.observer == nil {
		s.observer = NoopObserver{}
	}
	return s
}

// Model returns the name of the model behind the service.
func (s *Service) Model() string {
	return s.gen.Model()
}

// PreparePreInterview drafts a research brief for an upcoming interview.
func (s *Service) PreparePreInterview(ctx context.Context, req models.PreparationRequest) (*models.PreparationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prompt, err := buildPreparationPrompt(req)
	if err != nil {
		return nil, err
	}

	return call[models.PreparationResult](ctx, s, GenerateRequest{
		Task:   TaskPreparation,
		Prompt: prompt,
		Schema: preparationSchema,
	})
}

// AnalyzePostInterview turns raw interview notes into a meeting report and a
// proposed persona update. The update is not applied here.
func (s *Service) AnalyzePostInterview(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prompt, err := buildAnalysisPrompt(req)
	if err != nil {
		return nil, err
	}

	return call[models.AnalysisResult](ctx, s, GenerateRequest{
		Task:   TaskAnalysis,
		Prompt: prompt,
		Schema: analysisSchema,
	})
}

func call[T any](ctx context.Context, s *Service, req GenerateRequest) (*T, error) {
	start := s.now()
	raw, attempts, err := s.generate(ctx, req)

	var result T
	if err == nil {
		result, err = decodeReply[T](raw, req.Schema)
	}

	event := CallEvent{
		Task:     req.Task,
		Model:    s.gen.Model(),
		Latency:  s.now().Sub(start),
		Attempts: attempts,
		Success:  err == nil,
	}
	if err != nil {
		event.ErrorCode = ErrorCode(err)
	}
	s.observer.OnCallComplete(ctx, event)

	if err != nil {
		// Cancellation by the caller is not a generation failure.
		if ctx.Err() != nil && !errors.Is(err, ErrTimeout) {
			return nil, ctx.Err()
		}
		return nil, &GenerationFailure{Task: req.Task, Attempts: attempts, Cause: err}
	}
	return &result, nil
}

// generate runs the model call with the service timeout, retrying
// transient failures. It returns the number of attempts made.
func (s *Service) generate(ctx context.Context, req GenerateRequest) (string, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var lastErr error
	attempts := 0
	for attempts < 1+s.maxRetries {
		attempts++
		raw, err := s.gen.Generate(callCtx, req)
		if err == nil {
			if raw == "" {
				return "", attempts, ErrEmptyResponse
			}
			return raw, attempts, nil
		}
		lastErr = err

		if callCtx.Err() != nil || !IsTransient(err) {
			break
		}
	}

	switch {
	case ctx.Err() != nil:
		return "", attempts, ctx.Err()
	case callCtx.Err() != nil:
		return "", attempts, fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	case IsTransient(lastErr):
		return "", attempts, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, attempts, lastErr)
	}
	return "", attempts, lastErr
}
