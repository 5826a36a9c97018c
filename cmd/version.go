package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/combo/pkg/logger"
	"github.com/oakwood-commons/combo/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		format, err := parseOutputFormat(output)
		if err != nil {
			return err
		}
		data := buildVersionData()
		switch format {
		case outputJSON:
			b, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		case outputYAML:
			b, err := yaml.Marshal(data)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		default:
			_, err := fmt.Fprintln(out, settings.CliBinaryName+" "+cliVersionString())
			return err
		}
	},
}

func init() { //nolint:gochecknoinits
	versionCmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|yaml|json")
}

func buildVersionData() map[string]string {
	v := settings.VersionInformation
	return map[string]string{
		logger.VersionKey:   v.BuildVersion,
		logger.CommitKey:    v.Commit,
		logger.BuildTimeKey: v.BuildTime,
		logger.GoVersionKey: runtime.Version(),
	}
}

// cliVersionString is the version line shown by --version and the version
// command.
func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s (commit %s, built %s, %s)", v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}
