package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"ageing-engine/internal/config"
	"ageing-engine/internal/handler"
	"ageing-engine/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bundle := config.Default()
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		loaded, err := config.LoadDir(dir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("config load failed")
		}
		bundle = loaded
	}
	if err := bundle.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config bundle")
	}

	h := handler.New(bundle, store.New())

	log.Info().Str("port", port).Msg("ageing engine starting")
	if err := fasthttp.ListenAndServe(":"+port, h.Handle); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
