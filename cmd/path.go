package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show your learning path",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Fprint(cmd.OutOrStdout(), pathview.Render(s.cat, s.rec.LearningPath(), s.rec.Get()))
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next recommended step",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if !s.rec.Get().HasRole() {
			fmt.Fprint(out, pathview.Render(s.cat, nil, s.rec.Get()))
			return nil
		}
		fmt.Fprint(out, pathview.RenderRecommendation(s.rec.NextRecommendation()))
		return nil
	},
}
