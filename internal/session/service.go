// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/pkg/types"
)

// Answerer produces an answer for a question. *answer.Engine satisfies it.
type Answerer interface {
	Answer(ctx context.Context, question, instruction string, k int) (types.Answer, error)
}

// SourceGate picks the passages to expose for an answer. answer.Gate
// satisfies it.
type SourceGate interface {
	Sources(a types.Answer) []types.Passage
}

// Drafter builds a draft from project fields. *draft.Pipeline satisfies it.
type Drafter interface {
	Generate(ctx context.Context, fields types.ProjectFields) (types.Draft, error)
}

// Reply is the outcome of Ask.
type Reply struct {
	Answer  types.Answer    `json:"answer"`
	Sources []types.Passage `json:"sources"`

	// Degraded is set when the answer is the not-configured message.
	Degraded bool `json:"degraded"`
}

// Service runs answers and drafts against sessions and serializes work on
// each session id.
type Service struct {
	store       Store
	engine      Answerer
	gate        SourceGate
	drafter     Drafter
	instruction string
	topK        int
	logger      *zap.Logger
	now         func() time.Time
	locks       keyedMutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithInstruction sets the task instruction used for open questions.
func WithInstruction(instruction string) ServiceOption {
	return func(s *Service) { s.instruction = instruction }
}

// WithTopK sets the number of passages retrieved per question.
func WithTopK(k int) ServiceOption {
	return func(s *Service) { s.topK = k }
}

// WithLogger sets the service's logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service. drafter may be nil when drafts are not
// offered.
func NewService(store Store, engine Answerer, gate SourceGate, drafter Drafter, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		engine:      engine,
		gate:        gate,
		drafter:     drafter,
		instruction: answer.English.Instruction,
		topK:        answer.DefaultTopK,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts and saves a new session.
func (s *Service) Create(ctx context.Context) (*Session, error) {
	sess := New(s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("session created", zap.String("session", sess.ID))
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}

// Update loads session id, applies fn while holding the session's lock,
// and saves the result. When fn fails nothing is saved.
func (s *Service) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Ask answers question and records it on sess. Substantive, refusal and
// degraded answers all update the session; a generation failure leaves it
// untouched and is returned.
func (s *Service) Ask(ctx context.Context, sess *Session, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, errors.New("question is empty")
	}

	a, err := s.engine.Answer(ctx, question, s.instruction, s.topK)
	degraded := false
	if err != nil {
		if !errors.Is(err, answer.ErrNotConfigured) {
			return Reply{}, fmt.Errorf("answering: %w", err)
		}
		s.logger.Error("answering in degraded mode", zap.String("session", sess.ID), zap.Error(err))
		degraded = true
	}
	if !degraded && len(a.UsedPassages) == 0 {
		degraded = isDegradedText(s.engine, a.Text)
	}

	sources := s.gate.Sources(a)
	sess.RecordAnswer(question, a, sources)
	s.logger.Info("question answered",
		zap.String("session", sess.ID),
		zap.Int("sources", len(sources)),
		zap.Bool("degraded", degraded))

	return Reply{Answer: a, Sources: sess.Sources, Degraded: degraded}, nil
}

// isDegradedText recognizes the engine's not-configured reply.
func isDegradedText(engine Answerer, text string) bool {
	type degrader interface{ Degraded() types.Answer }
	if d, ok := engine.(degrader); ok {
		return d.Degraded().Text == text
	}
	return false
}

// Draft generates a draft from fields and stores it on sess. Empty fields
// take their defaults.
func (s *Service) Draft(ctx context.Context, sess *Session, fields types.ProjectFields) (types.Draft, error) {
	if s.drafter == nil {
		return types.Draft{}, errors.New("draft generation is not available")
	}
	fields = fields.WithDefaults()
	d, err := s.drafter.Generate(ctx, fields)
	if err != nil {
		return types.Draft{}, fmt.Errorf("generating draft: %w", err)
	}
	sess.SetDraft(d, fields)
	s.logger.Info("draft stored", zap.String("session", sess.ID), zap.String("project", fields.ProjectName))
	return d, nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
