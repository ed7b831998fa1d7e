package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/progress"
	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change learning preferences",
	Example: "  sentrypath prefs --content hands-on\n" +
		"  sentrypath prefs --current-step 2",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := prefsUpdate(cmd)
		if err != nil {
			return err
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if !u.IsEmpty() {
			if err := s.rec.UpdateProgress(cmd.Context(), u); err != nil {
				return err
			}
			s.sync(cmd.ErrOrStderr())
		}
		fmt.Fprint(cmd.OutOrStdout(), pathview.RenderStatus(s.cat, s.rec.Get(), s.rec.Authenticated()))
		return nil
	},
}

// prefsUpdate builds an update from the flags the user actually set.
func prefsUpdate(cmd *cobra.Command) (progress.Update, error) {
	var u progress.Update
	f := cmd.Flags()
	if f.Changed("content") {
		v, _ := f.GetString("content")
		ct := progress.ContentType(v)
		u.PreferredContentType = &ct
	}
	if f.Changed("current-step") {
		v, _ := f.GetInt("current-step")
		u.CurrentStep = &v
	}
	if f.Changed("seen-onboarding") {
		v, _ := f.GetBool("seen-onboarding")
		u.HasSeenOnboarding = &v
	}
	if err := progress.Validate(u); err != nil {
		return progress.Update{}, err
	}
	return u, nil
}

func init() {
	prefsCmd.Flags().String("content", "", "Preferred content type: hands-on, conceptual, mixed")
	prefsCmd.Flags().Int("current-step", 0, "Index of the step you are working on")
	prefsCmd.Flags().Bool("seen-onboarding", false, "Mark the onboarding screen as seen")
}
