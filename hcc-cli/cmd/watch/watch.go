package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	hcc "github.com/yejune/go-hcc"
	"github.com/yejune/go-hcc/hcc-cli/cmd"
	"github.com/yejune/go-hcc/hcc-cli/logger"
)

var port int

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the entry whenever the source directory changes",
	RunE:  watch,
}

func init() {
	watchCmd.Flags().IntVarP(&port, "port", "p", 0, "Serve regeneration notifications over websocket on this port")
	cmd.RootCmd.AddCommand(watchCmd)
}

func watch(c *cobra.Command, args []string) error {
	cfg, err := cmd.LoadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.HotReloadPort = port
	}
	engine, err := hcc.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer engine.Shutdown(context.Background())

	logger.L.Info().Str("source", engine.Config.Source).Msg("Watching, press Ctrl+C to stop")
	return engine.Watch(ctx)
}
