package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"wcprobe/internal/components/telemetry"
	"wcprobe/lib/configutil"
	"wcprobe/lib/serviceutil"
	libtelemetry "wcprobe/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	dumpDir    *string
)

var (
	cfg     Config
	otelSdk libtelemetry.Telemetry
	tel     telemetry.API = telemetry.SlogAPI{}
	dumpTo  telemetry.MessageOutput
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file to read.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every HTTP message exchanged to this directory.")
}

var rootCmd = &cobra.Command{
	Use:   "wcprobe",
	Short: "wcprobe fingerprints WooCommerce storefronts: captcha, a product id and the checkout's payment methods.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(*verbose)
		slog.Debug("verbose logging enabled")

		var err error
		cfg, err = configutil.ReadConfigOr(*configPath, defaultConfig())
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		otelSdk, err = libtelemetry.Setup(cmd.Context(), "wcprobe", cfg.Telemetry)
		if err != nil {
			serviceutil.Fatal("setup telemetry", err)
		}

		if *dumpDir != "" {
			output, err := telemetry.NewFilesystemOutput(*dumpDir)
			if err != nil {
				serviceutil.Fatal("failed to prepare dump directory", err)
			}
			dumpTo = output
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otelSdk.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
