package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/trial-screener/internal/ai"
	"github.com/spigell/trial-screener/internal/ai/gemini"
	"github.com/spigell/trial-screener/internal/logger"
	"github.com/spigell/trial-screener/internal/matching"
	"github.com/spigell/trial-screener/internal/report"
	"github.com/spigell/trial-screener/internal/screening"
	"github.com/spigell/trial-screener/internal/secrets"
	"github.com/spigell/trial-screener/internal/trials"
)

const (
	PromptReport   = "Show report"
	PromptEligible = "Show eligible trials only"
	PromptDump     = "Dump results to file"
	PromptExit     = "Exit"

	outputText = "text"
	outputJSON = "json"

	stdinRecord = "-"

	sampleRecord = `Patient ID: P-99
Age: 52
Diagnosis: Type 2 Diabetes
Biomarkers: HbA1c: 8.2
Medications: Metformin
Location: Toronto`
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "Screening finished. What next?",
	Items: []string{PromptReport, PromptEligible, PromptDump, PromptExit},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Extract a patient from a medical record and screen it against the trials",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("record", "r", "", "file with the medical record text, '-' reads stdin")
	screenCmd.Flags().Bool("sample", false, "use the built-in sample medical record")
	screenCmd.Flags().BoolP("yes", "y", false, "do not show the interactive menu, print the report and exit")
	screenCmd.Flags().StringP("output", "o", "", "output format: text or json")

	viper.BindPFlag("record-file", screenCmd.Flags().Lookup("record"))
	viper.BindPFlag("output", screenCmd.Flags().Lookup("output"))
}

// screen is the main command for the cli.
func screen(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the trial-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	output := strings.ToLower(strings.TrimSpace(config.Output))
	if output != outputText && output != outputJSON {
		logger.Fatal("unsupported output format", zap.String("output", config.Output))
	}

	useSample := flagIsSet(cmd, "sample")
	text, err := readRecord(config.RecordFile, useSample, os.Stdin)
	if err != nil {
		logger.Fatal("reading the medical record", zap.Error(err))
	}

	if strings.TrimSpace(text) == "" {
		logger.Fatal("patient data is required",
			zap.String("hint", "pass --record <file>, pipe the record with --record -, or use --sample"),
		)
	}

	catalog, err := trialSource(config.TrialsFile)
	if err != nil {
		logger.Fatal("loading trials", zap.Error(err))
	}

	logger.Info("trials loaded", zap.Int("count", catalog.Len()), zap.Strings("trial_ids", catalog.IDs()))

	if catalog.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no trials to screen against"))
		return
	}

	extractor, err := newExtractor(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the extractor", zap.Error(err))
	}

	orchestrator := screening.New(extractor, matching.New(), logger)
	result := orchestrator.Screen(ctx, text, catalog.Trials())

	if output == outputJSON {
		if err := report.WriteJSON(os.Stdout, report.NewDocument(result)); err != nil {
			logger.Fatal("writing results", zap.Error(err))
		}
		return
	}

	// The menu reads from stdin, which is taken when the record was piped in.
	interactive := !flagIsSet(cmd, "yes") && (useSample || strings.TrimSpace(config.RecordFile) != stdinRecord)
	if !interactive {
		if err := report.WriteText(os.Stdout, result); err != nil {
			logger.Fatal("writing results", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, result *screening.Result) error {
	switch action {
	case PromptReport:
		return report.WriteText(os.Stdout, result)
	case PromptEligible:
		eligible := result.Eligible()
		if len(eligible) == 0 {
			logger.Info("no eligible trials", zap.Bool("evaluated", result.Evaluated()))
			return nil
		}
		for _, d := range eligible {
			fmt.Fprint(os.Stdout, report.Card(d))
		}
		return nil
	case PromptDump:
		filename, err := report.DumpToTmpFile(report.NewDocument(result))
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// readRecord returns the medical record text from the sample, stdin or a file.
func readRecord(path string, useSample bool, stdin io.Reader) (string, error) {
	if useSample {
		return sampleRecord, nil
	}

	path = strings.TrimSpace(path)
	switch path {
	case "":
		return "", errors.New("no medical record given")
	case stdinRecord:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading record file: %w", err)
		}
		return string(data), nil
	}
}

func trialSource(path string) (*trials.Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return trials.Default(), nil
	}

	return trials.LoadFile(path)
}

func newExtractor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Extractor, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.Temperature, logger.WithCommonFields(log, gemini.Provider, cfg.Gemini.Model))
	if err != nil {
		return nil, err
	}

	// The generator falls back to its default model when none is configured.
	aiLogger := logger.WithCommonFields(log, gemini.Provider, generator.Model())
	aiLogger.Debug("gemini extractor ready", zap.Float32("temperature", cfg.Gemini.Temperature))

	return gemini.NewExtractor(generator, cfg.Gemini.MaxLogLength, aiLogger), nil
}

func flagIsSet(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}
