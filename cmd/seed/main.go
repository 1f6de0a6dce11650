// seed は動作確認用のユーザーを1件作る。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/config"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/domain/model"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/db"
	infraRepo "github.com/purushothaman-web/ThiraiView-sub000/internal/infra/repository"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/logger"
	auth "github.com/purushothaman-web/ThiraiView-sub000/internal/usecase/auth_usecase"
)

func main() {
	email := flag.String("email", "dev@example.com", "user email")
	username := flag.String("username", "dev", "username")
	password := flag.String("password", "", "plain password (required)")
	role := flag.String("role", string(model.RoleUser), "USER, MODERATOR or ADMIN")
	verified := flag.Bool("verified", true, "mark email as verified")
	blocked := flag.Bool("blocked", false, "create the user blocked")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel, cfg.IsProduction())

	r, err := model.ParseRole(*role)
	if err != nil {
		log.Fatal().Err(err).Str("role", *role).Msg("seed")
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	uc := auth.NewProvisionUserUsecase(
		infraRepo.NewUserGormRepository(gormDB),
		auth.NewBcryptPasswordHasher(cfg.BcryptCost),
		auth.UUIDGenerator{},
		auth.SystemClock{},
	)

	u, err := uc.Execute(context.Background(), auth.ProvisionUserInput{
		Email:      *email,
		Username:   *username,
		Password:   *password,
		Role:       r,
		IsVerified: *verified,
		IsBlocked:  *blocked,
	})
	if errors.Is(err, auth.ErrUserAlreadyExists) {
		log.Info().Str("email", *email).Msg("user already exists, skipped")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Str("id", u.ID).Str("email", u.Email).Str("role", string(u.Role)).Msg("user created")
}
