// Command memoryscramble runs a Memory Scramble board server: it hosts one
// or more shared card grids and serves flip/look/watch/replace/reset over
// plain HTTP.
package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"memoryscramble/api"
	"memoryscramble/board"
	"memoryscramble/config"
	"memoryscramble/loghandler"
	"memoryscramble/manager"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found; using environment variables and flags.")
	}

	cfg := config.Load()

	addr := flag.String("addr", cfg.HTTPAddr, "address to listen on (\":0\" for an OS-assigned port)")
	boardFile := flag.String("board", cfg.BoardFile, "board file to load at startup (random board if empty)")
	flag.Parse()

	logger := slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"tag", "main",
		"board_rows", cfg.BoardRows, "board_cols", cfg.BoardCols,
		"addr", *addr, "board_file", *boardFile)

	var b *board.Board
	var err error
	if *boardFile != "" {
		b, err = board.ParseFile(*boardFile)
		if err != nil {
			logger.Error("failed to load board file", "tag", "main", "path", *boardFile, "err", err)
			os.Exit(1)
		}
	} else {
		b, err = board.NewRandom(cfg.BoardRows, cfg.BoardCols)
		if err != nil {
			logger.Error("failed to generate random board", "tag", "main", "err", err)
			os.Exit(1)
		}
	}

	mgr := manager.New(cfg.BoardCreateRPS, logger)
	defaultID := mgr.Register(b)
	logger.Info("default board ready", "tag", "main", "id", defaultID)

	handler := api.NewHandler(mgr, cfg.BoardRows, cfg.BoardCols, logger)

	listenAddr := *addr
	logger.Info("listening", "tag", "main", "addr", listenAddr)
	if err := http.ListenAndServe(listenAddr, handler.Routes()); err != nil {
		logger.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}
