package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/ui/theme"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List roles and the Sentry features in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		role, _ := cmd.Flags().GetString("role")
		features := cat.Features()
		if role != "" {
			r := catalog.Role(role)
			if !cat.IsRole(r) {
				return fmt.Errorf("%w: %q", catalog.ErrUnknownRole, role)
			}
			features = cat.FeaturesForRole(r)
		} else {
			fmt.Fprintln(out, theme.Title.Render("Roles"))
			for _, r := range cat.Roles() {
				fmt.Fprintf(out, "  %-16s%s\n", r, theme.Subtitle.Render(cat.RoleName(r)))
			}
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, theme.Title.Render("Features"))
		for _, f := range features {
			fmt.Fprintf(out, "  %-24s%s\n", f.ID, theme.Body.Render(f.Name))
			if f.Description != "" {
				fmt.Fprintf(out, "  %-24s%s\n", "", theme.Hint.Render(f.Description))
			}
		}
		return nil
	},
}

func init() {
	featuresCmd.Flags().String("role", "", "Only list features with steps on this role's path")
}
