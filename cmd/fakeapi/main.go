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
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sokoide/shopfront/pkg/domain"
	"github.com/sokoide/shopfront/pkg/infra/apitest"
	"github.com/sokoide/shopfront/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakeapi: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("fakeapi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", ":3000", "HTTP network address")
	seed := fs.Bool("seed", true, "create demo accounts and products")
	level := fs.String("log-level", "debug", "log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	root, err := logging.New(stderr, *level, "console")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log := logging.NewPackageLogger(root, "fakeapi")

	fake := apitest.NewServer(apitest.WithLogger(root))
	if *seed {
		if err := seedDemo(fake, log); err != nil {
			return err
		}
	}

	srv := &http.Server{Addr: *addr, Handler: fake}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", *addr).Msg("fake shop API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func seedDemo(fake *apitest.Server, log zerolog.Logger) error {
	accounts := []domain.Registration{
		{Name: "Admin", LastName: "Shop", Email: "admin@shop.test", Password: "admin", Role: domain.RoleAdmin, IVACondition: domain.IVARegistered},
		{Name: "Client", LastName: "Shop", Email: "client@shop.test", Password: "client", Role: domain.RoleClient, IVACondition: domain.IVAFinalConsumer},
	}
	for _, a := range accounts {
		if _, err := fake.SeedUser(a); err != nil {
			return fmt.Errorf("seed user %s: %w", a.Email, err)
		}
		log.Info().Str("email", a.Email).Str("password", a.Password).Stringer("role", a.Role).Msg("demo account")
	}
	products := []domain.NewProduct{
		{Name: "Mate", Description: "Calabaza forrada en cuero", Media: []string{"https://example.com/mate.png"}, Price: decimal.RequireFromString("12.50")},
		{Name: "Yerba", Description: "Un kilo, con palo", Media: []string{"https://example.com/yerba.png"}, Price: decimal.RequireFromString("5.20")},
		{Name: "Bombilla", Description: "Alpaca", Media: []string{"https://example.com/bombilla.png"}, Price: decimal.RequireFromString("8")},
	}
	for _, p := range products {
		fake.SeedProduct(p)
	}
	return nil
}
