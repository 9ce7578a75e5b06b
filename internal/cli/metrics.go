package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attunelabs/attune/internal/config"
	"github.com/attunelabs/attune/internal/health"
	"github.com/attunelabs/attune/internal/observe"
)

// serveMetrics initialises the OTel SDK with the Prometheus exporter and
// serves /metrics plus health probes. It must run before the engine is
// constructed so engine instruments bind to the real meter provider. The
// returned shutdown drains the HTTP server and flushes the exporters.
func (a *app) serveMetrics(ctx context.Context) (shutdown func(), err error) {
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "attune"})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	probes := health.New(
		health.Checker{Name: "assets", Check: func(context.Context) error {
			_, err := os.Stat(a.cfg.Assets.Dir)
			return err
		}},
		health.Checker{Name: "tts", Check: func(context.Context) error {
			cfg := a.cfg.TTS
			if cfg.Provider == "" || cfg.Provider == config.TTSNone {
				return nil
			}
			if cfg.APIKey() == "" {
				return fmt.Errorf("%s not set", cfg.APIKeyEnv)
			}
			return nil
		}},
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", probes.Healthz)
	mux.HandleFunc("/readyz", probes.Readyz)

	srv := &http.Server{
		Addr:    a.cfg.Metrics.ListenAddr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics listener failed", "addr", srv.Addr, "err", err)
		}
	}()
	a.log.Info("metrics endpoint up", "addr", a.cfg.Metrics.ListenAddr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = otelShutdown(shutdownCtx)
	}, nil
}
