// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/pkg/types"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func samplePassages() []types.Passage {
	return []types.Passage{
		{Text: "Wetlands near the site hold protected species.", SourcePath: "kalmar/nature.md", Page: 2},
		{Text: "Arable land may be used when no alternative exists.", SourcePath: "law/land.md", Page: 7},
	}
}

// stubAnswerer returns a fixed answer and error and counts calls.
type stubAnswerer struct {
	answer types.Answer
	err    error

	mu    sync.Mutex
	calls int
}

func (s *stubAnswerer) Answer(context.Context, string, string, int) (types.Answer, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.answer, s.err
}

type stubDrafter struct {
	fields types.ProjectFields
	draft  types.Draft
	err    error
}

func (s *stubDrafter) Generate(_ context.Context, f types.ProjectFields) (types.Draft, error) {
	s.fields = f
	return s.draft, s.err
}

func newTestService(t *testing.T, a Answerer, d Drafter) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(time.Hour)
	gate := answer.Gate{Prefix: answer.English.RefusalPrefix}
	return NewService(store, a, gate, d, WithClock(func() time.Time { return testNow })), store
}

func TestOpenCitation(t *testing.T) {
	s := New(testNow)
	s.RecordAnswer("q", types.Answer{Text: "a"}, samplePassages())

	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"first", 1, false},
		{"last", 2, false},
		{"zero", 0, true},
		{"past end", 3, true},
		{"negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.CloseSource()
			p, err := s.OpenCitation(tt.n)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoSuchCitation)
				assert.False(t, s.Selection.IsOpen())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, samplePassages()[tt.n-1], p)
			require.True(t, s.Selection.IsOpen())
			assert.Equal(t, p.Page, s.Selection.OpenPage)
		})
	}
}

func TestSelectionUnknownPageOpensFirst(t *testing.T) {
	var sel Selection
	sel.Select(types.Passage{SourcePath: "grid.md"}, 0)
	assert.True(t, sel.IsOpen())
	assert.Equal(t, 1, sel.OpenPage)

	sel.Close()
	assert.False(t, sel.IsOpen())
	assert.Equal(t, 0, sel.OpenPage)
}

func TestRecordAnswerResetsSelection(t *testing.T) {
	s := New(testNow)
	s.RecordAnswer("first", types.Answer{Text: "one"}, samplePassages())
	_, err := s.OpenCitation(2)
	require.NoError(t, err)

	s.RecordAnswer("second", types.Answer{Text: "two"}, nil)
	assert.False(t, s.Selection.IsOpen())
	assert.NotNil(t, s.Sources)
	assert.Empty(t, s.Sources)
	require.Len(t, s.Transcript, 4)
	assert.Equal(t, types.Turn{Role: types.RoleUser, Content: "second"}, s.Transcript[2])
	assert.Equal(t, types.Turn{Role: types.RoleAssistant, Content: "two"}, s.Transcript[3])
}

func TestClearHistoryKeepsDraft(t *testing.T) {
	s := New(testNow)
	s.RecordAnswer("q", types.Answer{Text: "a"}, samplePassages())
	_, err := s.OpenCitation(1)
	require.NoError(t, err)
	s.SetDraft(types.Draft{Title: "T"}, types.DefaultProjectFields())

	s.ClearHistory()
	assert.Empty(t, s.Transcript)
	assert.Empty(t, s.Sources)
	assert.False(t, s.Selection.IsOpen())
	require.NotNil(t, s.Draft)
	assert.Equal(t, "T", s.Draft.Title)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	s := New(testNow)
	s.RecordAnswer("q", types.Answer{Text: "a"}, samplePassages())
	require.NoError(t, store.Save(ctx, s))

	s.Sources[0].Text = "mutated after save"

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePassages()[0].Text, got.Sources[0].Text)

	got.Transcript = append(got.Transcript, types.Turn{Role: types.RoleUser, Content: "x"})
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, again.Transcript, 2)
	assert.Equal(t, 1, store.Count())

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(ctx, mr.Addr(), "", 0, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := New(testNow)
	s.RecordAnswer("q", types.Answer{Text: "a"}, samplePassages())
	_, err = s.OpenCitation(1)
	require.NoError(t, err)
	s.SetDraft(types.Draft{Title: "T", Project: "P", Timestamp: testNow}, types.DefaultProjectFields())
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists(redisKeyPrefix+s.ID))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+s.ID))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Sources, got.Sources)
	assert.Equal(t, s.Transcript, got.Transcript)
	require.True(t, got.Selection.IsOpen())
	assert.Equal(t, 2, got.Selection.OpenPage)
	require.NotNil(t, got.Fields)
	assert.Equal(t, types.DefaultProjectFields(), *got.Fields)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), addr, "", 0, time.Hour)
	assert.Error(t, err)
}

func TestServiceAskSubstantive(t *testing.T) {
	ctx := context.Background()
	a := &stubAnswerer{answer: types.Answer{
		Text:         "Protection applies **[Source: 1]**.",
		UsedPassages: samplePassages(),
	}}
	svc, _ := newTestService(t, a, nil)

	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	var reply Reply
	sess, err = svc.Update(ctx, sess.ID, func(s *Session) error {
		var err error
		reply, err = svc.Ask(ctx, s, "  What protects wetlands?  ")
		return err
	})
	require.NoError(t, err)
	assert.False(t, reply.Degraded)
	assert.Equal(t, samplePassages(), reply.Sources)
	assert.Equal(t, samplePassages(), sess.Sources)
	assert.Equal(t, "What protects wetlands?", sess.Transcript[0].Content)

	stored, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Transcript, 2)
}

func TestServiceAskRefusalKeepsSelectionClosed(t *testing.T) {
	ctx := context.Background()
	a := &stubAnswerer{answer: types.Answer{
		Text:         "  " + answer.English.RefusalPrefix + " and found no basis.",
		UsedPassages: samplePassages(),
	}}
	svc, _ := newTestService(t, a, nil)
	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	sess, err = svc.Update(ctx, sess.ID, func(s *Session) error {
		s.Sources = samplePassages()
		_, err := s.OpenCitation(1)
		require.NoError(t, err)
		_, err = svc.Ask(ctx, s, "Unrelated question?")
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, sess.Sources)
	assert.False(t, sess.Selection.IsOpen())

	_, err = sess.OpenCitation(1)
	assert.ErrorIs(t, err, ErrNoSuchCitation)
}

func TestServiceAskDegradedOnSearchFailure(t *testing.T) {
	ctx := context.Background()
	a := &stubAnswerer{
		answer: types.Answer{Text: answer.English.Degraded, UsedPassages: []types.Passage{}},
		err:    errors.Join(answer.ErrNotConfigured, errors.New("disk gone")),
	}
	svc, _ := newTestService(t, a, nil)
	s := New(testNow)

	reply, err := svc.Ask(ctx, s, "Anything?")
	require.NoError(t, err)
	assert.True(t, reply.Degraded)
	assert.Empty(t, reply.Sources)
	require.Len(t, s.Transcript, 2)
	assert.Equal(t, answer.English.Degraded, s.Transcript[1].Content)
}

func TestServiceAskGenerationFailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	a := &stubAnswerer{err: errors.Join(answer.ErrGeneration, errors.New("quota"))}
	svc, _ := newTestService(t, a, nil)

	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Update(ctx, sess.ID, func(s *Session) error {
		_, err := svc.Ask(ctx, s, "Question?")
		return err
	})
	require.ErrorIs(t, err, answer.ErrGeneration)

	stored, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Transcript)
	assert.Equal(t, 1, a.calls)
}

func TestServiceAskRejectsBlankQuestion(t *testing.T) {
	a := &stubAnswerer{}
	svc, _ := newTestService(t, a, nil)
	_, err := svc.Ask(context.Background(), New(testNow), "   ")
	assert.Error(t, err)
	assert.Zero(t, a.calls)
}

func TestServiceDraftFillsDefaults(t *testing.T) {
	ctx := context.Background()
	d := &stubDrafter{draft: types.Draft{Title: "CONSULTATION NOTICE - DRAFT", Project: "Solpark Norr"}}
	svc, _ := newTestService(t, &stubAnswerer{}, d)
	s := New(testNow)

	got, err := svc.Draft(ctx, s, types.ProjectFields{ProjectName: "Solpark Norr"})
	require.NoError(t, err)
	assert.Equal(t, d.draft, got)
	assert.Equal(t, "Solpark Norr", d.fields.ProjectName)
	assert.Equal(t, types.DefaultProjectFields().Municipality, d.fields.Municipality)
	require.NotNil(t, s.Draft)
	require.NotNil(t, s.Fields)
	assert.Equal(t, d.fields, *s.Fields)
}

func TestServiceDraftFailureKeepsPreviousDraft(t *testing.T) {
	d := &stubDrafter{err: errors.New("model down")}
	svc, _ := newTestService(t, &stubAnswerer{}, d)
	s := New(testNow)
	s.SetDraft(types.Draft{Title: "old"}, types.DefaultProjectFields())

	_, err := svc.Draft(context.Background(), s, types.ProjectFields{})
	require.Error(t, err)
	assert.Equal(t, "old", s.Draft.Title)
}

func TestServiceUpdateUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &stubAnswerer{}, nil)
	_, err := svc.Update(context.Background(), "missing", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceUpdateSerializesPerSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &stubAnswerer{}, nil)
	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Update(ctx, sess.ID, func(s *Session) error {
				s.Transcript = append(s.Transcript, types.Turn{Role: types.RoleUser, Content: "x"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Transcript, n)
	assert.Empty(t, svc.locks.locks)
}
