package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/config"
	"github.com/sokoide/shopfront/pkg/domain"
	"github.com/sokoide/shopfront/pkg/infra/api"
	"github.com/sokoide/shopfront/pkg/infra/notify"
	"github.com/sokoide/shopfront/pkg/infra/rabbitmq"
	"github.com/sokoide/shopfront/pkg/infra/storage"
	"github.com/sokoide/shopfront/pkg/logging"
	"github.com/sokoide/shopfront/pkg/ui"
	"github.com/sokoide/shopfront/pkg/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "shop: %v\n", err)
		os.Exit(1)
	}
}

// run wires the client and drives the shell until quit, end of input or
// ctx is done. Everything it opens is closed before it returns.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	fs := flag.NewFlagSet("shop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "remote API base URL")
	fs.StringVar((*string)(&cfg.Store), "store", string(cfg.Store), "credential store: bolt, redis or memory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "address for the /metrics listener (empty disables it)")
	fs.BoolVar(&cfg.ReportWriteFailures, "report-failures", cfg.ReportWriteFailures, "show an error toast when a write fails")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// logs go to stderr so they do not mix with the screen
	root, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log := logging.NewPackageLogger(root, "main")

	creds, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s credential store: %w", cfg.Store, err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	client, err := api.New(cfg.APIURL, creds, api.WithMetrics(api.NewMetrics(reg)), api.WithLogger(root))
	if err != nil {
		return fmt.Errorf("build API client: %w", err)
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, log)
	}

	var notifier domain.Notifier = notify.NewConsoleNotifier(stdout)
	if cfg.AMQPURL != "" {
		dial := rabbitmq.Dial{Attempts: cfg.AMQPDialAttempts, Delay: cfg.AMQPDialDelay}
		conn, ch, err := rabbitmq.SetupConn(ctx, cfg.AMQPURL, dial, logging.NewPackageLogger(root, "rabbitmq"))
		if err != nil {
			log.Warn().Err(err).Msg("notifications will not be published")
		} else {
			defer conn.Close()
			defer ch.Close()
			notifier = notify.MultiNotifier{notifier, rabbitmq.NewNotifier(ch)}
		}
	}

	session := usecase.NewSessionStore(creds, client, root)
	session.ValidateOnStart(ctx)

	kb := usecase.NewKeyboard()
	runner := usecase.NewAsyncRunner()
	shell := ui.NewShell(ui.Deps{
		In:       stdin,
		Out:      stdout,
		Session:  session,
		Keyboard: kb,
		NewDashboard: func() *usecase.Dashboard {
			return usecase.NewDashboard(usecase.DashboardDeps{
				API:      client,
				Session:  session,
				Notifier: notifier,
				Keyboard: kb,
				Runner:   runner,
				Policy:   usecase.SettlementPolicy{ReportFailures: cfg.ReportWriteFailures},
				Logger:   root,
			})
		},
		Logger: root,
	})

	err = shell.Run(ctx)
	// let in-flight writes settle before the store closes
	runner.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}

func openStore(cfg config.Config) (domain.CredentialStore, func(), error) {
	switch cfg.Store {
	case config.StoreBolt:
		s, err := storage.OpenBoltCredentialStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewRedisCredentialStore(rdb, cfg.RedisKey), func() { rdb.Close() }, nil
	default:
		return storage.NewMemoryCredentialStore(), func() {}, nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics listener stopped")
	}
}
