package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/neetmock/internal/auth"
	"github.com/pavelanni/neetmock/internal/handler"
	appI18n "github.com/pavelanni/neetmock/internal/i18n"
	"github.com/pavelanni/neetmock/internal/model"
	"github.com/pavelanni/neetmock/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the persistence API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db-driver", string(store.DriverSQLite), "Database driver (sqlite, postgres)")
	f.String("db", "neetmock.db", "SQLite path or Postgres DSN")
	f.String("jwt-secret", "", "HMAC secret for access tokens (or set NEETMOCK_JWT_SECRET)")
	f.Duration("token-ttl", auth.DefaultTTL, "Access token lifetime")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (default any)")
	f.StringP("lang", "l", "en", "Default language for error messages (en, hi)")
	f.String("admin-email", "admin@neetmock.local", "Email of the seeded admin account")
	f.String("admin-password", "", "Initial admin password (or set NEETMOCK_ADMIN_PASSWORD)")
	addLogFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	secret := v.GetString("jwt-secret")
	if secret == "" {
		return errors.New("jwt secret is required: set --jwt-secret flag or NEETMOCK_JWT_SECRET env var")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := store.Open(openCtx, store.Driver(v.GetString("db-driver")), v.GetString("db"))
	cancel()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	h := handler.New(db, auth.NewService(secret, v.GetDuration("token-ttl")))
	srv := &http.Server{
		Addr: v.GetString("addr"),
		Handler: handler.NewRouter(h, handler.RouterConfig{
			Lang:           lang,
			AllowedOrigins: v.GetStringSlice("cors-origins"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", srv.Addr,
			"db_driver", v.GetString("db-driver"),
			"lang", lang,
			"token_ttl", v.GetDuration("token-ttl"),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedAdmin(db *store.Store, email, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or NEETMOCK_ADMIN_PASSWORD env var")
	}
	if err := auth.ValidateRegistration("Administrator", email, password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Name:         "Administrator",
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "email", email)
	return nil
}
