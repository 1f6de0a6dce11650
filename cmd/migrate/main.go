package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/config"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/infra/db/migrate"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/logger"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "up or down")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel, cfg.IsProduction())

	if err := migrate.Run(cfg.DSN(), *direction); err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("migrate")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
