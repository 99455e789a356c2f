package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpmrepo",
		Short: "Build YUM/DNF repository metadata from a directory of RPMs",
		Long: `rpmrepo scans a directory for .rpm files, reads each package's header,
and writes a repodata/ directory (repomd.xml, primary.xml, filelists.xml,
other.xml) in the same layout createrepo_c produces.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(NewGenerateCmd())

	return rootCmd
}
