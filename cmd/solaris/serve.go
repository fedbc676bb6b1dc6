// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/server"
	"github.com/pdiddy/solaris/internal/session"
	"github.com/pdiddy/solaris/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session API over HTTP",
	Long: `Serve exposes sessions, cited answers, source selection and drafts as a
JSON API, plus /healthz and Prometheus /metrics. Session state lives in
memory or in Redis (session.backend).`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	deps, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	store, closeStore, err := sessionStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	loc := deps.engine.Composer().Locale()
	svc := session.NewService(store, deps.engine, deps.engine.Gate(), deps.pipeline,
		session.WithInstruction(qaInstruction(cfg, loc)),
		session.WithTopK(cfg.Answer.TopK),
		session.WithLogger(logger.Named("session")))

	e := server.New(server.Options{
		Sessions:   svc,
		Texts:      deps.texts,
		Metrics:    deps.metrics.Handler(),
		Configured: deps.engine.Configured,
		Logger:     logger.Named("http"),
	})
	if !deps.engine.Configured() {
		logger.Warn("serving in degraded mode: answers will report the configuration error")
	}
	return server.Run(ctx, e, cfg.Server.Addr, logger)
}

func sessionStore(ctx context.Context, c types.SessionConfig) (session.Store, func(), error) {
	if c.Backend == types.SessionRedis {
		rs, err := session.NewRedisStore(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, c.TTL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sessions in redis", zap.String("addr", c.RedisAddr))
		return rs, func() { _ = rs.Close() }, nil
	}
	return session.NewMemoryStore(c.TTL), func() {}, nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}
