package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"opscheck/internal/app"

	"github.com/spf13/cobra"
)

// serveConfigPath points at the YAML configuration file. Environment
// variables still override whatever the file says.
var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the opscheck server",
	Long: `Starts the HTTP server: the SSE push channel on /sse, the message
endpoint on /message, the n8n webhook on /webhook/{id} and the
introspection endpoints (/tools, /connections, /healthz, /readyz,
/metrics).

Configuration is read from the --config file, overlaid with environment
variables such as ABC_SYSTEM_BASE_URL, ABC_API_KEY and LOG_LEVEL. The
file is watched; changing the log level takes effect without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, app.Options{
		ConfigPath: serveConfigPath,
		Version:    GetVersion(),
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config", "opscheck.yaml", "Path to the configuration file")
}
