package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/trial-screener/internal/report"
	"github.com/spigell/trial-screener/internal/trials"
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "List the trials patients are screened against",
	Run: func(cmd *cobra.Command, _ []string) {
		catalog, err := trialSource(viper.GetString("trials-file"))
		if err != nil {
			log.Fatalf("loading trials: %s", err)
		}

		id, _ := cmd.Flags().GetString("id")
		items, err := selectTrials(catalog, id)
		if err != nil {
			log.Fatal(err)
		}

		if err := report.WriteTrials(os.Stdout, items); err != nil {
			log.Fatalf("writing trials: %s", err)
		}
	},
}

func init() {
	trialsCmd.Flags().String("id", "", "show a single trial by its identifier")
	rootCmd.AddCommand(trialsCmd)
}

// selectTrials returns the whole catalog, or only the trial with the given id.
func selectTrials(catalog *trials.Catalog, id string) ([]trials.Trial, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Trials(), nil
	}

	trial := catalog.FindByID(id)
	if trial == nil {
		return nil, fmt.Errorf("trial %q not found, known trials: %s", id, strings.Join(catalog.IDs(), ", "))
	}

	return []trials.Trial{*trial}, nil
}
