// Command kvengined is a demo server that loads a kvengine data file
// and exposes it over HTTP. It is a collaborator of the storage core,
// not part of it: everything here calls into engine.Engine's public
// operations.
package main

import (
	"flag"
	"os"

	"github.com/phuslu/log"

	"github.com/avhimaz/kvengine/internal/config"
	"github.com/avhimaz/kvengine/internal/engine"
	"github.com/avhimaz/kvengine/internal/httpapi"
)

func main() {
	configPath := flag.String("config", "kvengined.yaml", "path to a YAML config file")
	flag.Parse()

	logger := log.Logger{Level: log.InfoLevel, Writer: &log.IOWriter{Writer: os.Stderr}}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	engine.SetLogger(logger)

	store, err := engine.LoadWithThreshold(cfg.DataPath, cfg.CompactThreshold)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DataPath).Msg("failed to load engine")
	}
	defer store.Close()

	server := httpapi.NewServer(store)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("http server exited")
	}
}
