package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mlproject version information",
	Long:  `Display version, build time, commit hash, and platform information for the mlproject binary.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := version.Get()
		out := cmd.OutOrStdout()

		if jsonOutput {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return errors.Wrap(err, "format version as JSON")
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, info.String())
		fmt.Fprintf(out, "Platform: %s\n", info.Platform)
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
