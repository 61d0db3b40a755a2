package generate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yejune/go-hcc/hcc-cli/cmd"
	"github.com/yejune/go-hcc/hcc-cli/logger"
)

var stdout bool

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the entry file into the source directory",
	Long:  "Write the entry file into the source directory, or print it with --stdout",
	RunE:  generate,
}

func init() {
	generateCmd.Flags().BoolVar(&stdout, "stdout", false, "Print the entry instead of writing it")
	cmd.RootCmd.AddCommand(generateCmd)
}

func generate(c *cobra.Command, args []string) error {
	engine, err := cmd.NewEngine()
	if err != nil {
		return err
	}
	defer engine.Shutdown(c.Context())

	if stdout {
		code, _, err := engine.Render()
		if err != nil {
			return err
		}
		fmt.Fprint(c.OutOrStdout(), code)
		return nil
	}

	path, err := engine.Generate()
	if err != nil {
		return err
	}
	logger.L.Info().Str("path", path).Msg("Entry generated")
	return nil
}
