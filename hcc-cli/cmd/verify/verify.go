package verify

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yejune/go-hcc/hcc-cli/cmd"
	"github.com/yejune/go-hcc/hcc-cli/logger"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Render the entry and execute it against stubbed modules",
	Long: "Render the entry, parse its imports with esbuild and run it in the embedded JS runtime " +
		"to check every API module is registered and every other module imported.",
	RunE: verify,
}

func init() {
	cmd.RootCmd.AddCommand(verifyCmd)
}

func verify(c *cobra.Command, args []string) error {
	engine, err := cmd.NewEngine()
	if err != nil {
		return err
	}
	defer engine.Shutdown(c.Context())

	code, entry, err := engine.Render()
	if err != nil {
		return err
	}
	report, err := engine.Verify(code, entry)
	if err != nil {
		color.Red("✗ entry does not match the discovered files")
		return err
	}
	for _, reg := range report.Registered {
		logger.L.Debug().Str("file", reg.File).Str("mod", reg.Mod).Msg("registered")
	}
	color.Green("✓ %d API modules registered, %d modules imported", len(report.Registered), len(report.Imports()))
	return nil
}
