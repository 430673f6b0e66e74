package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "threadchat",
	Short: "Threaded chat server with retrieval-augmented replies",
	Long: `Threadchat is a threaded chat application server. Assistant replies
are generated by an LLM provider and, when an embedding service is
configured, augmented with context retrieved from earlier
conversations and uploaded documents.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".threadchat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
