package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var buildVersion, buildCommit, buildDate = "dev", "none", "unknown"

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (v versionInfo) RenderHuman(out io.Writer) error {
	_, err := fmt.Fprintf(out, "afk %s\n", formatVersion(v.Version, v.Commit, v.Date))
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return WriteOutput(cmd.OutOrStdout(), versionInfo{
			Version: buildVersion,
			Commit:  buildCommit,
			Date:    buildDate,
		})
	},
}
