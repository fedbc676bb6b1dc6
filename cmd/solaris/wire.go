// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/internal/draft"
	"github.com/pdiddy/solaris/internal/embed"
	"github.com/pdiddy/solaris/internal/knowledge"
	"github.com/pdiddy/solaris/internal/llm"
	"github.com/pdiddy/solaris/internal/metrics"
	"github.com/pdiddy/solaris/internal/secrets"
	"github.com/pdiddy/solaris/pkg/types"
)

// passageStore is what the CLI needs from either store backend.
type passageStore interface {
	answer.DocumentStore
	knowledge.Indexer
	io.Closer
}

// embeddingCredential returns the key for the embedding provider, which
// may differ from the model provider's.
func embeddingCredential(c types.Config) string {
	if c.Embedding.Provider != types.EmbeddingGemini {
		return ""
	}
	if c.Model.Provider == types.ProviderGemini || c.Model.Provider == "" {
		return c.ModelCredential
	}
	return secrets.Resolve("", secrets.EnvForProvider("gemini"), loadedSecrets, secrets.GoogleAPIKey)
}

func buildEmbedder(c types.Config) (embed.Embedder, error) {
	return embed.New(c.Embedding, embeddingCredential(c), &http.Client{Timeout: c.Model.Timeout})
}

// openStore opens the configured passage store. create makes a missing
// SQLite file instead of failing.
func openStore(ctx context.Context, c types.Config, embedder embed.Embedder, create bool) (passageStore, error) {
	if c.UsesPostgres() {
		pg, err := knowledge.NewPGStore(ctx, c.StoreLocation,
			knowledge.WithEmbedder(embedder), knowledge.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if create {
			dims, err := probeDimensions(ctx, embedder)
			if err != nil {
				_ = pg.Close()
				return nil, err
			}
			if err := pg.EnsureSchema(ctx, dims); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		return pg, nil
	}

	opts := []knowledge.Option{knowledge.WithEmbedder(embedder), knowledge.WithLogger(logger)}
	open := knowledge.OpenExisting
	if create {
		open = knowledge.NewStore
	}
	s, err := open(c.StoreLocation, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func probeDimensions(ctx context.Context, embedder embed.Embedder) (int, error) {
	vec, err := embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probing embedding width: %w", err)
	}
	return len(vec), nil
}

// engineDeps is everything built for answering. Closing it releases the
// store.
type engineDeps struct {
	engine   *answer.Engine
	pipeline *draft.Pipeline
	texts    draft.Texts
	store    passageStore
	metrics  *metrics.Metrics
}

func (d *engineDeps) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

// buildEngine wires the store, model, composer and pipeline. A store or
// model that cannot be built is logged and left out, so the engine answers
// in degraded mode instead of failing the command.
func buildEngine(ctx context.Context, c types.Config) (*engineDeps, error) {
	loc, err := answer.LookupLocale(c.Answer.Locale)
	if err != nil {
		return nil, err
	}
	texts, err := draft.LookupTexts(c.Answer.Locale)
	if err != nil {
		return nil, err
	}

	deps := &engineDeps{texts: texts, metrics: metrics.New()}

	var store answer.DocumentStore
	embedder, err := buildEmbedder(c)
	if err != nil {
		logger.Error("embedding provider unavailable, using full-text ranking", zap.Error(err))
		embedder = nil
	}
	if ps, err := openStore(ctx, c, embedder, false); err != nil {
		logger.Error("passage store unavailable", zap.String("location", c.StoreLocation), zap.Error(err))
	} else {
		deps.store = ps
		store = ps
	}

	var model answer.LanguageModel
	if m, err := llm.New(c.Model, c.ModelCredential, &http.Client{Timeout: c.Model.Timeout}); err != nil {
		logger.Error("language model unavailable", zap.String("provider", string(c.Model.Provider)), zap.Error(err))
	} else {
		model = m
	}

	composer := answer.NewComposer(loc, c.Answer.RefusalPrefix)
	deps.engine = answer.NewEngine(store, model, composer,
		answer.WithLogger(logger.Named("answer")),
		answer.WithObserver(deps.metrics))

	deps.pipeline = draft.NewPipeline(deps.engine,
		draft.WithTexts(texts),
		draft.WithTitle(c.Draft.Title),
		draft.WithTopK(c.Draft.TopK),
		draft.WithDelay(c.Draft.InterCallDelay),
		draft.WithLogger(logger.Named("draft")),
		draft.WithObserver(deps.metrics))

	return deps, nil
}

// qaInstruction is the configured task instruction for open questions.
func qaInstruction(c types.Config, loc answer.Locale) string {
	if c.Answer.Instruction != "" {
		return c.Answer.Instruction
	}
	return loc.Instruction
}
