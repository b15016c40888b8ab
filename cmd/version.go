package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Actual version can be specified in build command.
var version = "unknown"

type versionInfo struct {
	App     string `json:"app"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the extraction model in use",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{
			App:     app,
			Version: version,
			Model:   viper.GetString("ai.gemini.model"),
		}

		asJSON, _ := cmd.Flags().GetBool("as-json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Printf("%s version: %s (model %s)\n", info.App, info.Version, info.Model)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("as-json", false, "print version information as json")
	rootCmd.AddCommand(versionCmd)
}
