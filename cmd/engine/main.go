package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cowrite/engine/internal/ai"
	"cowrite/engine/internal/config"
	"cowrite/engine/internal/engine"
	"cowrite/engine/internal/export"
	"cowrite/engine/internal/history"
	"cowrite/engine/internal/ot"
	"cowrite/engine/internal/presence"
	"cowrite/engine/internal/search"
	"cowrite/engine/internal/store"
)

// logBroadcaster is the default transport until a websocket layer is wired
// in front of the engine.
type logBroadcaster struct{}

func (logBroadcaster) Broadcast(roomID string, op ot.Operation, version int) {
	log.Printf("broadcast room=%s seq=%d type=%s pos=%d", roomID, version, op.Type, op.Position)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	collaborators := engine.Collaborators{Broadcast: logBroadcaster{}}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		collaborators.Archive = store.NewPostgresStore(db)
		log.Printf("Archiving operations to Postgres")
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}
	collaborators.History = history.New(cfg.ReposDir)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		presenceStore, err := presence.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer presenceStore.Close()
		collaborators.Presence = presenceStore
		log.Printf("Mirroring presence to Redis")
	}

	registry := engine.NewRegistry()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	collaborators.Search = search.NewService(meiliClient, search.NewScanner(registry))

	if len(cfg.AIProviderURLs) > 0 {
		providers := make([]*ai.HTTPProvider, 0, len(cfg.AIProviderURLs))
		for i, url := range cfg.AIProviderURLs {
			name := fmt.Sprintf("provider-%d", i+1)
			providers = append(providers, ai.NewHTTPProvider(name, url, cfg.AIAPIKey, cfg.AITimeout))
		}
		collaborators.Generator = ai.NewManager(providers)
		log.Printf("AI generation enabled with %d provider(s)", len(providers))
	}

	var uploader *export.Uploader
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		var err error
		uploader, err = export.NewUploader(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object store connection failed: %v", err)
		}
		log.Printf("Uploading exports to bucket %s", cfg.MinioBucket)
	}
	exportService := export.NewService(uploader)

	service := engine.New(registry, cfg.EventLogCap, collaborators)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		format := export.Format(r.URL.Query().Get("format"))
		if format == "" {
			format = export.FormatHTML
		}
		snap, err := service.ExportRoom(r.Context(), roomID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		res, err := exportService.Export(r.Context(), snap, format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", res.MimeType)
		w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
		w.Write(res.Data)
	})
	mux.HandleFunc("/import", func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		room, err := service.RestoreRoom(r.Context(), roomID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"roomId":%q,"version":%d}`+"\n", room.ID, room.Version())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := service.Stats()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","rooms":%d,"participants":%d}`+"\n", stats.Rooms, stats.Participants)
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Cowrite engine listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
