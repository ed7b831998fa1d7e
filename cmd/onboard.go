package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/onboarding"
	"github.com/abhisek/sentrypath/internal/progress"
	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Pick your role and the Sentry features you already use",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		cur := s.rec.Get()
		res, err := onboarding.Run(ctx, s.cat, cur.Role, cur.CompletedFeatures)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !res.OK {
			seen := true
			if err := s.rec.UpdateProgress(ctx, progress.Update{HasSeenOnboarding: &seen}); err != nil {
				return err
			}
			s.sync(cmd.ErrOrStderr())
			fmt.Fprintln(out, "Onboarding skipped. Run `sentrypath onboard` again any time.")
			return nil
		}

		if err := s.rec.SelectRole(ctx, res.Role, res.Selected); err != nil {
			return err
		}
		s.sync(cmd.ErrOrStderr())

		fmt.Fprint(out, pathview.Render(s.cat, s.rec.LearningPath(), s.rec.Get()))
		fmt.Fprintln(out)
		fmt.Fprint(out, pathview.RenderRecommendation(s.rec.NextRecommendation()))
		return nil
	},
}
