// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/internal/secrets"
	"github.com/pdiddy/solaris/pkg/types"
)

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// setDefaults registers every key of types.DefaultConfig so that
// environment variables resolve through Unmarshal.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetDefault("store_location", d.StoreLocation)
	v.SetDefault("model_credential", "")
	v.SetDefault("corpus_root", d.CorpusRoot)

	v.SetDefault("model.provider", string(d.Model.Provider))
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.temperature", d.Model.Temperature)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.timeout", d.Model.Timeout)

	v.SetDefault("embedding.provider", string(d.Embedding.Provider))
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)

	v.SetDefault("answer.top_k", d.Answer.TopK)
	v.SetDefault("answer.locale", d.Answer.Locale)
	v.SetDefault("answer.refusal_prefix", d.Answer.RefusalPrefix)
	v.SetDefault("answer.instruction", d.Answer.Instruction)

	v.SetDefault("draft.top_k", d.Draft.TopK)
	v.SetDefault("draft.inter_call_delay", d.Draft.InterCallDelay)
	v.SetDefault("draft.title", d.Draft.Title)
	v.SetDefault("draft.output_dir", d.Draft.OutputDir)

	v.SetDefault("session.backend", string(d.Session.Backend))
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.redis_addr", d.Session.RedisAddr)
	v.SetDefault("session.redis_db", d.Session.RedisDB)
	v.SetDefault("session.redis_password", "")

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.production", d.Log.Production)
	v.SetDefault("server.addr", d.Server.Addr)
}

// loadConfig resolves the configuration from v and fills credentials from
// the environment and the secrets directory.
func loadConfig(v *viper.Viper, store map[string]string) (types.Config, error) {
	setDefaults(v)

	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	provider := string(c.Model.Provider)
	c.ModelCredential = secrets.Resolve(c.ModelCredential,
		secrets.EnvForProvider(provider), store, secrets.KeyForProvider(provider))
	c.Session.RedisPassword = secrets.Resolve(c.Session.RedisPassword, nil, store, secrets.RedisPassword)

	if err := validateConfig(c); err != nil {
		return types.Config{}, err
	}
	return c, nil
}

func validateConfig(c types.Config) error {
	if _, err := answer.LookupLocale(c.Answer.Locale); err != nil {
		return err
	}
	switch c.Session.Backend {
	case types.SessionMemory, types.SessionRedis:
	default:
		return fmt.Errorf("unknown session backend %q: use memory or redis", c.Session.Backend)
	}
	switch c.Embedding.Provider {
	case "", types.EmbeddingNone, types.EmbeddingOllama, types.EmbeddingGemini:
	default:
		return fmt.Errorf("unknown embedding provider %q: use none, ollama, or gemini", c.Embedding.Provider)
	}
	if c.Answer.TopK < 0 || c.Draft.TopK < 0 {
		return fmt.Errorf("top_k must not be negative")
	}
	if c.Draft.InterCallDelay < 0 {
		return fmt.Errorf("draft.inter_call_delay must not be negative")
	}
	return nil
}
