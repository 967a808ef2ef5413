package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/evallife/llm-chat/internal/api"
	"github.com/evallife/llm-chat/internal/config"
	"github.com/evallife/llm-chat/internal/ui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "chat.log"

func main() {
	path, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating settings: %v\n", err)
		os.Exit(1)
	}

	logFile := setupZerolog(filepath.Join(filepath.Dir(path), logFileName))
	if logFile != nil {
		defer logFile.Close()
	}

	log.Info().Msg("Starting up")

	store := config.NewStore(path)
	cfg, err := store.Load()
	if err != nil {
		log.Error().Err(err).Msg("loading settings failed")
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	app := ui.NewTViewUI(cfg, store, api.NewClient(api.DefaultBaseURL))
	if err := app.Run(); err != nil {
		log.Error().Err(err).Msg("ui stopped with error")
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	log.Info().Msg("Application stopped")
}

// setupZerolog points the global logger at a file, since the terminal
// belongs to the UI. Logging is dropped when the file cannot be opened.
func setupZerolog(path string) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Logger = zerolog.Nop()
		return nil
	}

	log.Logger = zerolog.New(f).
		With().
		Timestamp().
		Logger()
	return f
}
