package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"httpwire/internal/request"
	"httpwire/internal/response"
	"httpwire/internal/server"
)

func main() {
	var configPath string
	cfg := defaultConfig()

	cmd := &cobra.Command{
		Use:          "httpserver",
		Short:        "Demo HTTP/1.1 server",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			// Flags the user set win over the file.
			if !cmd.Flags().Changed("addr") {
				cfg.Addr = loaded.Addr
			}
			if !cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = loaded.MetricsAddr
			}
			if !cmd.Flags().Changed("workers") {
				cfg.Workers = loaded.Workers
			}
			if !cmd.Flags().Changed("log-level") {
				cfg.LogLevel = loaded.LogLevel
			}
			return nil
		},
		RunE: func(*cobra.Command, []string) error { return run(cfg) },
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config")
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "prometheus sidecar address (empty disables)")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "worker pool size (0 = goroutine per connection)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg Config) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()

	opts := []server.Option{
		server.WithLogger(log),
		server.WithRegisterer(reg),
	}
	if cfg.Workers > 0 {
		opts = append(opts, server.WithWorkerPool(cfg.Workers))
	}

	srv, err := server.Bind(cfg.Addr, handler, opts...)
	if err != nil {
		return fmt.Errorf("bind %s: %w", cfg.Addr, err)
	}
	defer func() { _ = srv.Close() }()
	go func() { _ = srv.ListenAndServe() }()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, log)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("server stopped")
	return nil
}

// serveMetrics exposes the registry on a stdlib sidecar listener, the
// usual promhttp arrangement. The protocol stack under test never
// touches it.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics listener failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func handler(req *request.Request) (*response.Response, error) {
	if req.RequestLine.Method != request.MethodGet {
		resp := response.New(response.StatusMethodNotAllowed)
		resp.Headers.Set("content-type", "text/plain")
		resp.Body = []byte("only GET around here\n")
		return resp, nil
	}

	switch req.RequestLine.Target {
	case "/":
		resp := response.New(response.StatusOK)
		resp.Headers.Set("content-type", "text/html")
		resp.Body = []byte(`<html>
  <head>
    <title>200 Ok</title>
  </head>
  <body>
    <h1>Success!</h1>
    <p>Your request was an absolute banger.</p>
  </body>
</html>
`)
		return resp, nil

	case "/yourproblem":
		resp := response.New(response.StatusBadRequest)
		resp.Headers.Set("content-type", "text/html")
		resp.Body = []byte(`<html>
  <head>
    <title>400 Bad Request</title>
  </head>
  <body>
    <h1>Bad Request</h1>
    <p>Your request honestly kinda sucked.</p>
  </body>
</html>
`)
		return resp, nil

	case "/myproblem":
		// Exercises the handler-error path: the server answers with
		// its canonical bare 500.
		return nil, errors.New("okay, you know what? this one is on me")

	default:
		resp := response.New(response.StatusNotFound)
		resp.Headers.Set("content-type", "text/plain")
		resp.Body = []byte("nothing here\n")
		return resp, nil
	}
}
