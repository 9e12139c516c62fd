package commands

import (
	"github.com/spf13/cobra"

	"github.com/kdidiop/participant-simulateur/internal/config"
)

var (
	configPath string
	envFile    string
	cfg        config.Config
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "simulateur",
		Short:        "PI-SPI participant API simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			loaded, err := config.Load(configPath, envFiles...)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default .env when present)")

	root.AddCommand(serveCmd(), seedCmd(), journalCmd())
	return root
}
