package cmd

import (
	"os"

	"github.com/spf13/cobra"

	hcc "github.com/yejune/go-hcc"
	"github.com/yejune/go-hcc/hcc-cli/logger"
)

var (
	configPath string
	source     string
	target     string
	verbose    bool
)

// RootCmd generates the entry when run without a subcommand
var RootCmd = &cobra.Command{
	Use:   "hcc",
	Short: "Generate the hooks entry file for a source directory",
	Long: "hcc scans a source directory, splits API route files from plain modules and writes " +
		"an entry that imports every module and registers the API modules for hydration.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := NewEngine()
		if err != nil {
			return err
		}
		defer engine.Shutdown(cmd.Context())

		path, err := engine.Generate()
		if err != nil {
			return err
		}
		logger.L.Info().Str("path", path).Msg("Entry generated")
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", hcc.DefaultConfigFile, "Configuration file path")
	RootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "Source directory (overrides config)")
	RootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "Entry dialect: js or ts (overrides config)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// LoadConfig reads the config file and applies the persistent flags
func LoadConfig() (hcc.Config, error) {
	cfg, err := hcc.LoadConfig(configPath)
	if err != nil {
		return hcc.Config{}, err
	}
	if source != "" {
		cfg.Source = source
	}
	if target != "" {
		cfg.Target = target
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// NewEngine builds an engine from LoadConfig
func NewEngine() (*hcc.Engine, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return hcc.New(cfg)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logger.L.Error().Err(err).Msg("hcc failed")
		os.Exit(1)
	}
}
