package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentrypath/internal/store"
	"github.com/abhisek/sentrypath/internal/ui/pathview"
)

var rootCmd = &cobra.Command{
	Use:   "sentrypath",
	Short: "Personalized Sentry learning paths",
	Long: "sentrypath tracks your progress through a role-based Sentry curriculum " +
		"and tells you what to learn next.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p := s.rec.Get()
		out := cmd.OutOrStdout()
		fmt.Fprint(out, pathview.RenderStatus(s.cat, p, s.rec.Authenticated()))
		if cur := s.rec.CurrentStep(); cur != nil {
			fmt.Fprintf(out, "\nCurrent step: %s\n", cur.ID)
		} else if !p.HasRole() {
			fmt.Fprintln(out, "\nRun `sentrypath onboard` to pick a role.")
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides SENTRYPATH_DB env var)")
	pf.String("user", "", "User ID to sync progress for (overrides SENTRYPATH_USER env var)")
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/sentrypath/config.yaml)")
	pf.String("catalog", "", "Path to a feature catalog JSON file (default: built in)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
