// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft generates two-section permit application drafts. Each
// section is one answer cycle with its own reference list numbered from 1.
package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/pkg/types"
)

const (
	// DefaultInterCallDelay is the minimum spacing between the two calls.
	DefaultInterCallDelay = 2 * time.Second

	// DefaultTitle is the document title when none is configured.
	DefaultTitle = "CONSULTATION NOTICE - DRAFT"
)

// Answerer runs one retrieval and generation cycle. *answer.Engine
// satisfies it.
type Answerer interface {
	Answer(ctx context.Context, question, instruction string, k int) (types.Answer, error)
}

// Observer is told about each completed draft.
type Observer interface {
	ObserveDraft(ok bool, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveDraft(bool, time.Duration) {}

// Pipeline chains the siting and environmental answer cycles.
type Pipeline struct {
	engine   Answerer
	texts    Texts
	title    string
	topK     int
	delay    time.Duration
	sleep    func(time.Duration)
	now      func() time.Time
	logger   *zap.Logger
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTexts sets the draft wording.
func WithTexts(t Texts) Option { return func(p *Pipeline) { p.texts = t } }

// WithTitle sets the document title.
func WithTitle(title string) Option { return func(p *Pipeline) { p.title = title } }

// WithTopK sets the number of passages retrieved per section.
func WithTopK(k int) Option { return func(p *Pipeline) { p.topK = k } }

// WithDelay sets the minimum spacing between the two calls.
func WithDelay(d time.Duration) Option { return func(p *Pipeline) { p.delay = d } }

// WithSleep replaces time.Sleep.
func WithSleep(sleep func(time.Duration)) Option { return func(p *Pipeline) { p.sleep = sleep } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithLogger sets the pipeline's logger.
func WithLogger(l *zap.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithObserver reports draft outcomes to o.
func WithObserver(o Observer) Option { return func(p *Pipeline) { p.observer = o } }

// NewPipeline returns a Pipeline over engine.
func NewPipeline(engine Answerer, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:   engine,
		texts:    EnglishTexts,
		title:    DefaultTitle,
		topK:     answer.DefaultTopK,
		delay:    DefaultInterCallDelay,
		sleep:    time.Sleep,
		now:      time.Now,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.title == "" {
		p.title = DefaultTitle
	}
	return p
}

// Generate builds the siting section, waits at least the configured delay,
// then builds the environmental section. A generation failure in either
// call aborts the draft. The wait ignores ctx so the two calls are always
// spaced by the full delay.
func (p *Pipeline) Generate(ctx context.Context, fields types.ProjectFields) (types.Draft, error) {
	start := p.now()
	fields = fields.WithDefaults()

	siting, err := p.section(ctx, p.texts.Siting, sitingQuery(p.texts.Siting, fields))
	if err != nil {
		p.observer.ObserveDraft(false, p.now().Sub(start))
		return types.Draft{}, fmt.Errorf("siting section: %w", err)
	}

	if p.delay > 0 {
		p.sleep(p.delay)
	}

	env, err := p.section(ctx, p.texts.Environmental, environmentalQuery(p.texts.Environmental, fields))
	if err != nil {
		p.observer.ObserveDraft(false, p.now().Sub(start))
		return types.Draft{}, fmt.Errorf("environmental section: %w", err)
	}

	d := types.Draft{
		Title:     p.title,
		Project:   fields.ProjectName,
		Timestamp: p.now(),
		Sections:  []types.DraftSection{siting, env},
	}
	p.observer.ObserveDraft(true, d.Timestamp.Sub(start))
	p.logger.Info("draft generated",
		zap.String("project", fields.ProjectName),
		zap.Int("siting_refs", len(siting.References)),
		zap.Int("environmental_refs", len(env.References)))
	return d, nil
}

// section runs one answer cycle. References are the full retrieved list
// with no refusal gate, numbered from 1 within the section.
func (p *Pipeline) section(ctx context.Context, t SectionText, query string) (types.DraftSection, error) {
	a, err := p.engine.Answer(ctx, query, t.Instruction, p.topK)
	if err != nil {
		if !errors.Is(err, answer.ErrNotConfigured) {
			return types.DraftSection{}, err
		}
		p.logger.Warn("draft section degraded", zap.String("section", t.Heading), zap.Error(err))
		return types.DraftSection{Heading: t.Heading, Body: a.Text, References: []types.Passage{}}, nil
	}

	refs := a.UsedPassages
	if refs == nil {
		refs = []types.Passage{}
	}
	p.logger.Debug("draft section done", zap.String("section", t.Heading), zap.Int("references", len(refs)))
	return types.DraftSection{Heading: t.Heading, Body: a.Text, References: refs}, nil
}

// LoadFields reads project fields from a YAML file. Missing keys take their
// defaults.
func LoadFields(path string) (types.ProjectFields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ProjectFields{}, fmt.Errorf("reading project fields: %w", err)
	}
	var f types.ProjectFields
	if err := yaml.Unmarshal(data, &f); err != nil {
		return types.ProjectFields{}, fmt.Errorf("parsing project fields: %w", err)
	}
	return f.WithDefaults(), nil
}
