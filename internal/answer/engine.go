// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer turns a question into a cited answer: it retrieves the
// top-k passages, numbers them into a context block, composes the prompt
// and makes one model call. It also holds the citation gate that hides
// sources behind a refusal.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/solaris/pkg/types"
)

var (
	// ErrNotConfigured marks answers produced in degraded mode because the
	// passage store failed.
	ErrNotConfigured = errors.New("answer engine not configured")

	// ErrGeneration marks a failed model call.
	ErrGeneration = errors.New("generation failed")
)

// DefaultTopK is the number of passages retrieved for open questions.
const DefaultTopK = 10

// DocumentStore returns the k passages most similar to query, best first.
type DocumentStore interface {
	Search(ctx context.Context, query string, k int) ([]types.Passage, error)
}

// LanguageModel generates text for a prompt.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Outcome classifies a finished answer call for metrics.
type Outcome string

const (
	OutcomeSubstantive Outcome = "substantive"
	OutcomeRefusal     Outcome = "refusal"
	OutcomeDegraded    Outcome = "degraded"
	OutcomeError       Outcome = "error"
)

// Observer receives one event per answer call.
type Observer interface {
	ObserveAnswer(outcome Outcome, passages int, generation time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveAnswer(Outcome, int, time.Duration) {}

// Engine runs retrieval, assembly, composition and generation. It is safe
// for concurrent use when its store and model are.
type Engine struct {
	store    DocumentStore
	model    LanguageModel
	composer *Composer
	gate     Gate
	logger   *zap.Logger
	observer Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithObserver reports answer outcomes to o.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine returns an Engine. store and model may be nil, in which case
// every call returns the degraded answer.
func NewEngine(store DocumentStore, model LanguageModel, composer *Composer, opts ...EngineOption) *Engine {
	if composer == nil {
		composer = NewComposer(English, "")
	}
	e := &Engine{
		store:    store,
		model:    model,
		composer: composer,
		gate:     composer.Gate(),
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Composer returns the engine's prompt composer.
func (e *Engine) Composer() *Composer { return e.composer }

// Gate returns the citation gate for this engine's refusal prefix.
func (e *Engine) Gate() Gate { return e.gate }

// Configured reports whether both the store and the model are present.
func (e *Engine) Configured() bool { return e.store != nil && e.model != nil }

// Degraded returns the fixed answer used when the engine cannot run.
func (e *Engine) Degraded() types.Answer {
	return types.Answer{Text: e.composer.Locale().Degraded, UsedPassages: []types.Passage{}}
}

// Answer retrieves k passages for question (DefaultTopK when k <= 0),
// prompts the model with instruction, and returns its text verbatim with
// the full retrieved list.
//
// A missing store or model yields the degraded answer and a nil error. A
// failed search yields the degraded answer and an error wrapping
// ErrNotConfigured. A failed model call yields an empty answer and an
// error wrapping ErrGeneration; it is not retried.
func (e *Engine) Answer(ctx context.Context, question, instruction string, k int) (types.Answer, error) {
	if !e.Configured() {
		e.logger.Warn("answer engine running in degraded mode",
			zap.Bool("store", e.store != nil), zap.Bool("model", e.model != nil))
		e.observer.ObserveAnswer(OutcomeDegraded, 0, 0)
		return e.Degraded(), nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	passages, err := e.store.Search(ctx, question, k)
	if err != nil {
		e.logger.Error("passage search failed", zap.Error(err))
		e.observer.ObserveAnswer(OutcomeDegraded, 0, 0)
		return e.Degraded(), fmt.Errorf("%w: searching passages: %w", ErrNotConfigured, err)
	}
	if passages == nil {
		passages = []types.Passage{}
	}

	loc := e.composer.Locale()
	prompt, err := e.composer.Compose(instruction, AssembleContext(passages, loc), question)
	if err != nil {
		e.observer.ObserveAnswer(OutcomeError, len(passages), 0)
		return types.Answer{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	start := time.Now()
	text, err := e.model.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Error("generation failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		e.observer.ObserveAnswer(OutcomeError, len(passages), elapsed)
		return types.Answer{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	outcome := OutcomeSubstantive
	if e.gate.IsRefusal(text) {
		outcome = OutcomeRefusal
	}
	if bad := OutOfRange(text, loc, len(passages)); len(bad) > 0 {
		e.logger.Warn("answer cites passages outside the context",
			zap.Ints("citations", bad), zap.Int("passages", len(passages)))
	}
	e.logger.Info("answered",
		zap.Int("k", k),
		zap.Int("passages", len(passages)),
		zap.String("outcome", string(outcome)),
		zap.Duration("generation", elapsed))
	e.observer.ObserveAnswer(outcome, len(passages), elapsed)

	return types.Answer{Text: text, UsedPassages: passages}, nil
}
