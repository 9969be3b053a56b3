package forj

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/forjbuild/forj/pkg/logging"
)

// NewRootCmd builds the forj command tree.
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "forj",
		Short: "Build action executor",
		Long: `forj executes fully-resolved build action trees: it runs processes,
writes and links files, diffs produced artifacts against expected ones,
and records promotion candidates for corrections to source files.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPromoteCmd())
	rootCmd.AddCommand(newDocsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
