package types

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yejune/go-hcc/hcc-cli/cmd"
	"github.com/yejune/go-hcc/hcc-cli/logger"
	"github.com/yejune/go-hcc/internal/typegen"
)

var out string

// typesCmd represents the types command
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Write TypeScript declarations for the hydration payload",
	RunE:  types,
}

func init() {
	typesCmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: <source>/hcc.d.ts)")
	cmd.RootCmd.AddCommand(typesCmd)
}

func types(c *cobra.Command, args []string) error {
	path := out
	if path == "" {
		cfg, err := cmd.LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		path = filepath.Join(cfg.Source, typegen.DefaultFileName)
	}
	if err := typegen.Generate(path); err != nil {
		return err
	}
	logger.L.Info().Str("path", path).Msg("Types written")
	return nil
}
