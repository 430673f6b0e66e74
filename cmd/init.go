package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/threadchat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize threadchat configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure threadchat and generates a .threadchat.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
