// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/solaris/pkg/types"
)

// --- test doubles ---

type fakeStore struct {
	passages []types.Passage
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeStore) Search(_ context.Context, query string, k int) ([]types.Passage, error) {
	f.gotQuery, f.gotK = query, k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.passages) > k {
		return f.passages[:k], nil
	}
	return f.passages, nil
}

type fakeModel struct {
	reply     string
	err       error
	calls     int
	gotPrompt string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.gotPrompt = prompt
	return f.reply, f.err
}

type recordingObserver struct {
	outcomes []Outcome
}

func (r *recordingObserver) ObserveAnswer(o Outcome, _ int, _ time.Duration) {
	r.outcomes = append(r.outcomes, o)
}

func samplePassages() []types.Passage {
	return []types.Passage{
		{Text: "Kalmar has protected oak pastures.", SourcePath: "kalmar/nature.md", Page: 2},
		{Text: "Wetlands near Kalmar host red-listed birds.", SourcePath: "kalmar/birds.md", Page: 4},
		{Text: "Grid connection requires a permit.", SourcePath: "grid.md"},
	}
}

// --- ContextAssembler ---

func TestAssembleContextNumbering(t *testing.T) {
	passages := samplePassages()
	block := AssembleContext(passages, English)

	for i := range passages {
		assert.Contains(t, block, fmt.Sprintf("DOCUMENT ID [%d]:", i+1))
	}
	assert.NotContains(t, block, "DOCUMENT ID [4]")
	assert.Less(t, strings.Index(block, "[1]"), strings.Index(block, "[2]"))
	assert.Less(t, strings.Index(block, "[2]"), strings.Index(block, "[3]"))

	assert.Contains(t, block, "Path: kalmar/birds.md (Page 4)\nCONTENT: Wetlands near Kalmar host red-listed birds.\n----------------")
	assert.Contains(t, block, "Path: grid.md (Page ?)")

	assert.Equal(t, block, AssembleContext(passages, English), "assembly is idempotent")
}

func TestAssembleContextEdgeCases(t *testing.T) {
	assert.Equal(t, "", AssembleContext(nil, English))

	block := AssembleContext([]types.Passage{{Text: "x"}}, Swedish)
	assert.Equal(t, "DOKUMENT ID [1]:\nSökväg: Okänd fil (Sida ?)\nINNEHÅLL: x\n----------------", block)

	dup := types.Passage{Text: "same", SourcePath: "a.md", Page: 1}
	block = AssembleContext([]types.Passage{dup, dup}, English)
	assert.Equal(t, 2, strings.Count(block, "CONTENT: same"), "duplicates are kept")
}

// --- PromptComposer ---

func TestComposeClauseOrder(t *testing.T) {
	c := NewComposer(English, "")
	prompt, err := c.Compose("TASK: write the siting section.", "CONTEXT BLOCK", "Where can we build?")
	require.NoError(t, err)

	order := []string{
		"TASK: write the siting section.",
		"ANALYSIS INSTRUCTIONS:",
		c.RefusalTemplate(),
		"SOURCE INSTRUCTIONS:",
		"**[Source: X]**",
		"CONTEXT:\nCONTEXT BLOCK",
		"QUESTION: Where can we build?",
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(prompt, part)
		require.GreaterOrEqual(t, idx, 0, "prompt missing %q", part)
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}
	assert.True(t, strings.HasPrefix(prompt, "TASK: write the siting section.\n"))
	assert.Contains(t, prompt, "1. Read the context")
	assert.Contains(t, prompt, "3. NEVER answer")
}

func TestComposerRefusalOverride(t *testing.T) {
	c := NewComposer(English, "No relevant material was found")
	assert.Equal(t, "No relevant material was found", c.RefusalPrefix())
	assert.True(t, strings.HasPrefix(c.RefusalTemplate(), "No relevant material was found and can conclude"))
	assert.Equal(t, Gate{Prefix: "No relevant material was found"}, c.Gate())

	prompt, err := c.Compose("i", "c", "q")
	require.NoError(t, err)
	assert.Contains(t, prompt, "No relevant material was found")
	assert.NotContains(t, prompt, English.RefusalPrefix)
}

func TestLookupLocale(t *testing.T) {
	loc, err := LookupLocale("")
	require.NoError(t, err)
	assert.Equal(t, "en", loc.Name)

	loc, err = LookupLocale("sv")
	require.NoError(t, err)
	assert.Equal(t, "Källa", loc.SourceWord)

	_, err = LookupLocale("de")
	assert.Error(t, err)
}

// --- CitationGate ---

func TestGateSources(t *testing.T) {
	gate := Gate{Prefix: English.RefusalPrefix}
	passages := samplePassages()

	tests := []struct {
		name string
		text string
		want []types.Passage
	}{
		{"substantive answer", "Oak pastures are protected **[Source: 1]**.", passages},
		{"refusal", English.RefusalPrefix + " and can conclude ...", nil},
		{"refusal after whitespace", "\n\t  " + English.RefusalPrefix + " and ...", nil},
		{"prefix mid-text is not a refusal", "Note: " + English.RefusalPrefix, passages},
		{"no citations still exposes all", "A general answer.", passages},
		{"case differs", strings.ToUpper(English.RefusalPrefix), passages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.Sources(types.Answer{Text: tt.text, UsedPassages: passages})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGateEmptyPrefixNeverMatches(t *testing.T) {
	assert.False(t, Gate{}.IsRefusal("anything"))
}

// --- citations ---

func TestCitedIDs(t *testing.T) {
	text := "A **[Source: 2]**. B **[Source: 1, 3]** and [Source:2]. C [Källa: 9]."
	assert.Equal(t, []int{1, 2, 3}, CitedIDs(text, English))
	assert.Equal(t, []int{9}, CitedIDs(text, Swedish))
	assert.Empty(t, CitedIDs("no markers", English))
	assert.Equal(t, []int{0, 4}, OutOfRange("[Source: 0] [Source: 4] [Source: 3]", English, 3))
}

// --- AnswerEngine ---

func TestAnswerReturnsFullListAndVerbatimText(t *testing.T) {
	store := &fakeStore{passages: samplePassages()}
	model := &fakeModel{reply: "Red-listed birds nest in wetlands **[Source: 2]**."}
	obs := &recordingObserver{}
	engine := NewEngine(store, model, NewComposer(English, ""), WithObserver(obs))

	ans, err := engine.Answer(context.Background(), "What is a nature value concern near Kalmar?", English.Instruction, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, store.gotK)
	assert.Equal(t, "What is a nature value concern near Kalmar?", store.gotQuery)
	assert.Equal(t, model.reply, ans.Text)
	assert.Equal(t, samplePassages(), ans.UsedPassages)
	assert.Equal(t, 1, model.calls)
	assert.Contains(t, model.gotPrompt, "DOCUMENT ID [2]:\nPath: kalmar/birds.md")
	assert.Equal(t, []Outcome{OutcomeSubstantive}, obs.outcomes)
}

// Scenario A: three ranked passages and a reply citing [Source: 2].
func TestScenarioSubstantiveAnswerExposesAllSources(t *testing.T) {
	passages := samplePassages()
	engine := NewEngine(&fakeStore{passages: passages},
		&fakeModel{reply: "Wetlands matter **[Source: 2]**."}, NewComposer(English, ""))

	ans, err := engine.Answer(context.Background(), "What is a nature value concern near Kalmar?", English.Instruction, 3)
	require.NoError(t, err)

	sources := engine.Gate().Sources(ans)
	require.Len(t, sources, 3)
	ids := CitedIDs(ans.Text, English)
	require.Equal(t, []int{2}, ids)
	assert.Equal(t, passages[1], sources[ids[0]-1])
}

// Scenario B: irrelevant passages and a verbatim refusal.
func TestScenarioRefusalHidesSources(t *testing.T) {
	composer := NewComposer(English, "")
	obs := &recordingObserver{}
	engine := NewEngine(&fakeStore{passages: samplePassages()},
		&fakeModel{reply: composer.RefusalTemplate()}, composer, WithObserver(obs))

	ans, err := engine.Answer(context.Background(), "Is sol-cell permitted on Mars?", English.Instruction, 10)
	require.NoError(t, err)
	assert.Len(t, ans.UsedPassages, 3, "the answer keeps what was retrieved")
	assert.Empty(t, engine.Gate().Sources(ans))
	assert.Equal(t, []Outcome{OutcomeRefusal}, obs.outcomes)
}

func TestAnswerDegradedWhenNotConfigured(t *testing.T) {
	tests := []struct {
		name  string
		store DocumentStore
		model LanguageModel
	}{
		{"no store", nil, &fakeModel{reply: "x"}},
		{"no model", &fakeStore{}, nil},
		{"neither", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.store, tt.model, NewComposer(English, ""))
			ans, err := engine.Answer(context.Background(), "q", "i", 5)
			require.NoError(t, err)
			assert.Equal(t, English.Degraded, ans.Text)
			assert.NotNil(t, ans.UsedPassages)
			assert.Empty(t, ans.UsedPassages)
		})
	}
}

func TestAnswerSearchFailureIsConfigurationError(t *testing.T) {
	model := &fakeModel{reply: "x"}
	engine := NewEngine(&fakeStore{err: errors.New("disk I/O error")}, model, NewComposer(English, ""))

	ans, err := engine.Answer(context.Background(), "q", "i", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, English.Degraded, ans.Text)
	assert.Empty(t, ans.UsedPassages)
	assert.Zero(t, model.calls)
}

func TestAnswerGenerationFailureIsNotRetried(t *testing.T) {
	upstream := errors.New("503 unavailable")
	model := &fakeModel{err: upstream}
	engine := NewEngine(&fakeStore{passages: samplePassages()}, model, NewComposer(English, ""))

	_, err := engine.Answer(context.Background(), "q", "i", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 1, model.calls)
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	model := &fakeModel{reply: English.RefusalPrefix + " ..."}
	engine := NewEngine(&fakeStore{}, model, nil)

	ans, err := engine.Answer(context.Background(), "q", "i", 5)
	require.NoError(t, err)
	assert.NotNil(t, ans.UsedPassages)
	assert.Empty(t, ans.UsedPassages)
	assert.Contains(t, model.gotPrompt, "CONTEXT:\n\n")
}
