package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/store"
	"github.com/abhisek/sentrypath/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent progress changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if s.st == nil {
			return errors.New("history is only kept in the SQLite store; set --user and leave redis.addr empty")
		}
		events, err := s.st.EventRepo().Recent(cmd.Context(), s.cfg.UserID, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, theme.Hint.Render("No changes recorded yet."))
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-16s%s\n",
				theme.Subtitle.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
				e.Op,
				theme.Hint.Render(e.Detail))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of changes to show")
}
