package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner progress to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this clears your role and all completed steps; pass --yes to confirm")
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		s.rec.ResetProgress(cmd.Context())
		if s.sync(cmd.ErrOrStderr()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
