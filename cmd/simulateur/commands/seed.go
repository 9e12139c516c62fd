package commands

import (
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	memory_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/out/memory"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Print the initial accounts, aliases and transactions as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := memory_adapter.DefaultSeed(time.Now().UTC(), cfg.Seed.Accounts)
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(seed); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
