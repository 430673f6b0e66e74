package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/threadchat/internal/chat"
	"github.com/ziadkadry99/threadchat/internal/config"
	"github.com/ziadkadry99/threadchat/internal/db"
	"github.com/ziadkadry99/threadchat/internal/embedding"
	"github.com/ziadkadry99/threadchat/internal/progress"
	"github.com/ziadkadry99/threadchat/internal/threads"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Resubmit stored messages to the embedding service",
	Long: `Walks every user message in the database and submits it to the
configured embedding service. Use after pointing threadchat at a new
or rebuilt RAG service so past conversations become retrievable again.
Trivial messages (greetings, acknowledgements) are skipped, matching
what the live pipeline embeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		rag := embedding.New(cfg.RAGServiceURL)
		if !rag.Enabled() {
			return fmt.Errorf("rag_service_url is not configured")
		}

		dbPath := filepath.Join(cfg.DataDir, "threadchat.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := threads.NewStore(database)
		messages, err := store.AllUserMessages(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing messages: %w", err)
		}

		var candidates []threads.Message
		for _, m := range messages {
			if chat.IsTrivial(m.Content) {
				continue
			}
			candidates = append(candidates, m)
		}

		reporter := progress.NewReporter()
		reporter.Start(len(candidates), "Reindexing messages")

		var failed int
		for _, m := range candidates {
			err := rag.CreateEmbedding(context.Background(), m.UserID, m.Content, m.ThreadID, m.ID)
			if err != nil {
				failed++
				if verbose {
					fmt.Fprintf(os.Stderr, "embedding message %s: %v\n", m.ID, err)
				}
			}
			reporter.Increment("")
		}
		reporter.Finish()

		fmt.Fprintf(os.Stderr, "reembedded %d messages (%d failed, %d trivial skipped)\n",
			len(candidates)-failed, failed, len(messages)-len(candidates))
		if failed > 0 {
			return fmt.Errorf("%d messages failed to embed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reembedCmd)
}
