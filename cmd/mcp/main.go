// Command mcp serves the board tools to an agent over stdio.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/config"
	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	mcpserver "github.com/sketchboard/sketchboard/backend-go/internal/mcp"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
)

const version = "1.0.0"

func main() {
	// stdout carries the protocol.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.MCPUserEmail == "" {
		slog.Error("MCP_USER_EMAIL is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	user, err := store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(cfg.MCPUserEmail)))
	if err != nil {
		slog.Error("find mcp user", "email", cfg.MCPUserEmail, "error", err)
		os.Exit(1)
	}

	fonts, err := render.LoadFonts(cfg.FontPath)
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}

	srv := mcpserver.New(board.NewService(store), user.ID, version, fonts)
	if err := srv.ServeStdio(); err != nil {
		slog.Error("mcp server", "error", err)
		os.Exit(1)
	}
}
