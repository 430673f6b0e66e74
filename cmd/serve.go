package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/threadchat/internal/analytics"
	"github.com/ziadkadry99/threadchat/internal/auth"
	"github.com/ziadkadry99/threadchat/internal/chat"
	"github.com/ziadkadry99/threadchat/internal/config"
	"github.com/ziadkadry99/threadchat/internal/db"
	"github.com/ziadkadry99/threadchat/internal/embedding"
	"github.com/ziadkadry99/threadchat/internal/server"
	"github.com/ziadkadry99/threadchat/internal/threads"
	"github.com/ziadkadry99/threadchat/internal/uploads"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the threadchat server",
	Long:  `Starts the threadchat server with REST API, websocket chat, and file uploads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		provider, err := buildProvider(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		rag := embedding.New(cfg.RAGServiceURL)
		engine := chat.NewEngine(provider, chat.EngineConfig{
			Model:        cfg.Model,
			MaxTokens:    cfg.Pipeline.MaxTokens,
			Temperature:  cfg.Pipeline.Temperature,
			HistoryLimit: cfg.Pipeline.HistoryLimit,
			MaxTurnChars: cfg.Pipeline.MaxTurnChars,
		})
		pipeline := chat.NewPipeline(rag, engine)

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "threadchat.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, database, pipeline)

		registerAllRoutes(srv, database, rag, pipeline, cfg)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "threadchat server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Provider: %s\n", cfg.Provider)
		if rag.Enabled() {
			fmt.Fprintf(os.Stderr, "  RAG service: %s\n", cfg.RAGServiceURL)
		} else {
			fmt.Fprintln(os.Stderr, "  RAG service: disabled")
		}

		return srv.Start()
	},
}

// registerAllRoutes wires up all feature routes.
func registerAllRoutes(srv *server.Server, database *db.DB, rag *embedding.Client, pipeline *chat.Pipeline, cfg *config.Config) {
	r := srv.Router()

	authStore := auth.NewStore(database)
	auth.RegisterRoutes(r, authStore)

	threadStore := threads.NewStore(database)
	threads.RegisterRoutes(r, threadStore, pipeline, authStore)

	uploadStore := uploads.NewStore(database)
	uploads.RegisterRoutes(r, uploadStore, rag, authStore, uploads.Config{
		Dir:           filepath.Join(cfg.DataDir, "uploads"),
		MaxSizeMB:     cfg.Uploads.MaxSizeMB,
		AllowPatterns: cfg.Uploads.AllowPatterns,
	})

	analyticsStore := analytics.NewStore(database)
	analytics.RegisterRoutes(r, analyticsStore, authStore)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
