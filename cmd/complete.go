package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var completeCmd = &cobra.Command{
	Use:   "complete <module-id>...",
	Short: "Mark learning modules completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		before := s.rec.Get()
		for _, id := range args {
			if err := s.rec.CompleteModule(ctx, id); err != nil {
				return err
			}
		}
		if !s.sync(cmd.ErrOrStderr()) {
			return nil
		}

		out := cmd.OutOrStdout()
		after := s.rec.Get()
		for _, id := range after.CompletedSteps {
			if !before.HasStep(id) {
				fmt.Fprintf(out, "Step completed: %s\n", id)
			}
		}
		fmt.Fprint(out, pathview.RenderRecommendation(s.rec.NextRecommendation()))
		return nil
	},
}
