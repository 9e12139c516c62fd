package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
	"github.com/kdidiop/participant-simulateur/pkg/journal"
)

func journalCmd() *cobra.Command {
	var (
		path  string
		event string
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Replay the audit journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cfg.Journal.Path
			}
			if path == "" {
				return errors.New("journal path is not configured")
			}

			out := cmd.OutOrStdout()
			count := 0
			err := journal.Replay(path, func(raw json.RawMessage) error {
				var entry usecase.JournalEntry
				if err := json.Unmarshal(raw, &entry); err != nil {
					return err
				}
				if event != "" && entry.Event != event {
					return nil
				}
				count++
				_, err := fmt.Fprintf(out, "%s %-20s %s\n", entry.At.Format("2006-01-02T15:04:05.000Z07:00"), entry.Event, compact(entry.Data))
				return err
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%d entries\n", count)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "journal file (default from config)")
	cmd.Flags().StringVar(&event, "event", "", "only print entries of this event (e.g. transaction.created)")
	return cmd
}

func compact(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
