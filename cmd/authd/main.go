// Command authd runs a small standalone credential service backed by SQLite.
// It wires the library the way a host application would: env config, bun
// persistence, the authenticator pair, and the lifecycle routes on a fiber
// backed router.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/voyago/go-auth"
)

func main() {
	cfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db)

	provider := auth.NewUserProvider(repo.Users())
	authenticator := auth.NewAuthenticator(provider, cfg)

	auther, err := auth.NewHTTPAuthenticator(authenticator, repo.Users(), cfg)
	if err != nil {
		log.Fatalf("http authenticator: %v", err)
	}

	var mailer auth.Mailer = auth.NewLogMailer(nil)
	if cfg.SMTPHost != "" {
		mailer = auth.NewSMTPMailer(cfg)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther),
		auth.WithControllerTokens(authenticator.TokenService()),
		auth.WithControllerMailer(mailer),
		auth.WithControllerResetURLBase(cfg.ResetURLBase),
		auth.WithControllerWelcomeURL(cfg.WelcomeURL),
	)

	go func() {
		if err := srv.Serve(cfg.ServerAddr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	log.Printf("authd listening on %s", cfg.ServerAddr)

	waitExitSignal()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func waitExitSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
}
