package main

import (
	"os"
	"runtime/debug"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/delivery"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/metrics"
	"github.com/brizzai/address-relay/internal/requester"
	"github.com/brizzai/address-relay/internal/server"
	"github.com/brizzai/address-relay/internal/server/handler"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "address-relay",
	Short: "Relay mailing-address submissions to a webhook or a spreadsheet",
	Long: `address-relay accepts address submissions on POST /api/address, validates them
and forwards each one to exactly one sink: a webhook, a spreadsheet reached with a
service account, or the log when nothing is configured.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with credentials redacted",
	RunE:  runConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd, configCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Caught panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			os.Exit(2)
		}
	}()

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		requester.Module,
		metrics.Module,
		delivery.Module,
		handler.Module,
		server.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Effective configuration")
	pterm.Println(string(out))
	pterm.Info.Printfln("Delivery mode: %s", pterm.LightGreen(cfg.ResolveMode()))
	return nil
}
