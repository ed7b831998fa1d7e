package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var roleCmd = &cobra.Command{
	Use:   "role <role>",
	Short: "Select your role without the interactive picker",
	Example: "  sentrypath role backend --features error-tracking,logging\n" +
		"  sentrypath role frontend",
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var roles []string
		for _, r := range catalog.AllRoles() {
			roles = append(roles, string(r))
		}
		return roles, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		features, _ := cmd.Flags().GetStringSlice("features")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		role := catalog.Role(args[0])
		if err := s.rec.SelectRole(cmd.Context(), role, features); err != nil {
			return fmt.Errorf("%w (run `sentrypath features` to list roles)", err)
		}
		if !s.sync(cmd.ErrOrStderr()) {
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), pathview.Render(s.cat, s.rec.LearningPath(), s.rec.Get()))
		return nil
	},
}

func init() {
	roleCmd.Flags().StringSlice("features", nil, "Feature IDs you already use (comma separated)")
}
