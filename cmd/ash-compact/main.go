package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ashcompact "github.com/Borislavv/go-ash-compactor"
	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/autocompactor"
	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/internal/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	var (
		cfgPath = flag.String("config", "config.yaml", "path to the YAML config")
		serve   = flag.Bool("serve", false, "serve the function over HTTP until interrupted")
		tracing = flag.Bool("trace", false, "export spans to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [-config path] [-trace] (-serve | ALL|REGION|GATEWAY|QUEUE | STORE <disk store>)\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("service", "ashCompactor"))
	slog.SetDefault(logger)

	if err := run(*cfgPath, *serve, *tracing, flag.Args(), logger); err != nil {
		logger.Error("ash-compact failed", "err", err)
		os.Exit(1)
	}
}

func run(cfgPath string, serve, tracing bool, args []string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if tracing {
		shutdown, err := setupTracing()
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracer provider shutdown failed", "err", err)
			}
		}()
	}

	local, err := runtime.NewLocal(cfg.Runtime, logger)
	if err != nil {
		return fmt.Errorf("start local runtime: %w", err)
	}
	defer func() {
		if err := local.Close(); err != nil {
			logger.Warn("local runtime close failed", "err", err)
		}
	}()

	compactor := ashcompact.New(ctx, &cfg.Compactor, logger, local)
	defer compactor.Close()

	if !serve {
		doc, err := compactor.Execute(ctx, args...)
		if err != nil {
			return err
		}
		fmt.Print(doc)
		return nil
	}

	autoCompactor := autocompactor.New(ctx, cfg.Runtime.AutoCompaction, logger, local)
	defer func() {
		_ = autoCompactor.Close()
		scans, hits, compacted, failed := autoCompactor.Metrics()
		logger.Info("auto compactor totals",
			"scans", scans, "hits", hits, "compacted", compacted, "errors", failed)
	}()

	srvCfg := cfg.Server
	if !srvCfg.Enabled() {
		srvCfg = &config.ServerCfg{Addr: config.DefaultServerAddr, ShutdownTimeout: config.DefaultShutdownTimeout}
	}
	srv, err := server.New(srvCfg, logger, compactor)
	if err != nil {
		return err
	}
	if err = srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	if err = srv.Stop(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setupTracing() (func(context.Context) error, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
