package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/store"
	"github.com/huangsam/tally/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set through -ldflags when building a release.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	rootCtx = context.Background()

	// input is what viper resolved; cfg is input after validation.
	input = &contract.ConfigRawInput{}
	cfg   = &contract.Config{}

	storeManager contract.StoreManager
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Compute project measures and technical debt from analysis reports.",
	Long: `Tally turns queued analysis reports into aggregated measures, tracked issues
and technical debt. Submit reports with "tally submit", process them with
"tally worker", then browse the results with the reports, measures and issues commands.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// configDefaults apply when neither a flag, a TALLY_ variable nor .tally.yaml sets a key.
var configDefaults = map[string]any{
	"store-backend":    schema.SQLiteBackend,
	"store-db-connect": "",
	"log-level":        "info",
	"log-format":       "text",
	"output":           schema.TextOut,
	"precision":        contract.DefaultPrecision,
	"limit":            contract.DefaultListLimit,
	"color":            "yes",
	"poll-interval":    contract.DefaultPollInterval.String(),
	"stale-after":      contract.DefaultStaleAfter.String(),
}

func initConfig() {
	viper.SetEnvPrefix("TALLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for key, value := range configDefaults {
		viper.SetDefault(key, value)
	}
}

// loadConfigFile reads --config, or else .tally.yaml from the working or home directory.
// A missing file is not an error.
func loadConfigFile() error {
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(".tally")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// configSetup fills cfg from every config source and validates it.
func configSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors
	return nil
}

// withConfig is the PreRunE of commands that never touch the store.
func withConfig(_ *cobra.Command, _ []string) error {
	return configSetup()
}

// withStore is the PreRunE of commands that read or write the store.
func withStore(_ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	if err := store.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the store used by the commands. main passes the global store.Manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}
