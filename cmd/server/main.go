package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/auth"
	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/collab"
	"github.com/sketchboard/sketchboard/backend-go/internal/config"
	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	"github.com/sketchboard/sketchboard/backend-go/internal/discovery"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/export"
	mw "github.com/sketchboard/sketchboard/backend-go/internal/middleware"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
	"github.com/sketchboard/sketchboard/backend-go/internal/thumbnail"
)

const version = "1.0.0"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	fonts, err := render.LoadFonts(cfg.FontPath)
	if err != nil {
		slog.Error("load fonts", "error", err)
		os.Exit(1)
	}
	renderer := render.NewRenderer(fonts)

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	boardService := board.NewService(store)
	boardHandler := board.NewHandler(boardService)

	thumbs, err := thumbnail.NewService(cfg.ThumbnailDir, renderer, store)
	if err != nil {
		slog.Error("thumbnail store", "dir", cfg.ThumbnailDir, "error", err)
		os.Exit(1)
	}
	boardService.SetCleaner(thumbs)
	thumbHandler := thumbnail.NewHandler(thumbs, boardService)
	exportHandler := export.NewHandler(renderer, boardService)

	// Rooms are flushed through the board service so saved content is
	// canonical, and every flush refreshes the dashboard thumbnail.
	saveRoom := func(ctx context.Context, boardID string, elements []document.Element) error {
		stored, err := boardService.SaveElements(ctx, boardID, elements)
		if err != nil {
			return err
		}
		if _, err := thumbs.Refresh(ctx, boardID, stored); err != nil {
			slog.Warn("refresh thumbnail", "board", boardID, "error", err)
		}
		return nil
	}

	hub := collab.NewHub(boardService.LoadElements, saveRoom)
	go hub.Run()
	if err := hub.StartFlusher(cfg.FlushSchedule); err != nil {
		slog.Error("start flusher", "error", err)
		os.Exit(1)
	}
	boardService.SetPublisher(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Export of posted elements (public, used by the offline editor)
	r.HandleFunc("/export", exportHandler.Export).Methods("POST", "OPTIONS")
	r.PathPrefix(thumbnail.URLPrefix).Handler(thumbs.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	boardHandler.Register(api)
	api.HandleFunc("/boards/{boardId}/export", exportHandler.ExportBoard).Methods("GET")
	api.HandleFunc("/boards/{boardId}/thumbnail", thumbHandler.Update).Methods("POST")

	// WebSocket endpoint
	r.Handle("/ws/board/{boardId}", collab.NewHandler(hub, authorizeSocket(authService, boardService), cfg.OriginHosts()))

	var adv *discovery.Advertiser
	if cfg.MDNSEnabled {
		adv, err = discovery.Advertise(cfg.Port, version)
		if err != nil {
			slog.Warn("mdns disabled", "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty boards
		slog.Info("saving all boards...")
		hub.Stop()

		if err := adv.Shutdown(); err != nil {
			slog.Warn("mdns shutdown", "error", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// authorizeSocket accepts the token from the header or the query parameter.
// Public boards may be opened without one, read-only.
func authorizeSocket(authSvc *auth.Service, boards *board.Service) collab.Authorizer {
	return func(r *http.Request, boardID string) (collab.Identity, error) {
		var id collab.Identity
		token, err := auth.TokenFromRequest(r)
		switch {
		case errors.Is(err, auth.ErrMissingToken):
		case err != nil:
			return id, collab.ErrUnauthorized
		default:
			userID, err := authSvc.ValidateToken(token)
			if err != nil {
				return id, collab.ErrUnauthorized
			}
			user, err := authSvc.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					return id, collab.ErrUnauthorized
				}
				return id, err
			}
			id.UserID = user.ID
			id.DisplayName = user.DisplayName
		}

		b, err := boards.Get(r.Context(), boardID, id.UserID)
		switch {
		case errors.Is(err, board.ErrNotFound):
			return id, collab.ErrNotFound
		case errors.Is(err, board.ErrForbidden):
			if id.UserID == "" {
				return id, collab.ErrUnauthorized
			}
			return id, collab.ErrForbidden
		case err != nil:
			return id, err
		}

		if id.UserID == "" {
			id.UserID = "anon-" + uuid.New().String()[:8]
			id.DisplayName = "Anonymous"
		}
		id.CanEdit = board.CanEdit(b, id.UserID)
		return id, nil
	}
}
