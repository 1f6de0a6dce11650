package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/config"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/handler"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/db"
	infraRepo "github.com/purushothaman-web/ThiraiView-sub000/internal/infra/repository"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/token"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/logger"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/server"
	auth "github.com/purushothaman-web/ThiraiView-sub000/internal/usecase/auth_usecase"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/validator"
)

const appName = "thiraiview auth"

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.New(cfg.LogLevel, cfg.IsProduction())
	if !cfg.IsProduction() {
		figure.NewFigure(appName, "cybermedium", true).Print()
		fmt.Println()
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	codec, err := token.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	//Usecase生成
	sessions := auth.NewSessionService(auth.SessionDeps{
		Users:      userRepo,
		Ledger:     rtRepo,
		AuditLogs:  auditRepo,
		Tx:         txm,
		Verifier:   auth.NewBcryptPasswordVerifier(),
		Codec:      codec,
		JTIs:       auth.UUIDGenerator{},
		RecordIDs:  auth.ULIDGenerator{},
		Clock:      auth.SystemClock{},
		Logger:     lg,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})

	//Handler生成
	v := validator.NewAuthValidator()
	verbose := !cfg.IsProduction()
	authH := handler.NewAuthHandler(sessions, codec, v, handler.CookieConfig{Secure: cfg.IsProduction()}, lg, verbose)
	adminH := handler.NewAdminUserHandler(sessions, codec, userRepo, v, lg, verbose)

	srv := server.New(server.Options{Addr: cfg.Port, FrontendURL: cfg.FEURL, Logger: lg}, authH, adminH)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Server起動
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
	lg.Info().Msg("server stopped")
}
