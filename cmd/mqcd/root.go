package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"mqc.szuro.net/adapters/exampleapi"
	"mqc.szuro.net/adapters/xmlreader"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/internal/plugin"
	"mqc.szuro.net/pkg/adapter"
)

var (
	configFile string
	mqcConf    config.MQCConf
)

var rootCmd = &cobra.Command{
	Use:   "mqcd",
	Short: "mqcd - runs MQC adapters and ships their records",
	Long: `mqcd hosts MQC adapters. Connectors read data sources, file readers read
report files, and the resulting data and findings are shipped to the targets
configured in the config file.

Adapters are either built in or loaded as plugin executables from plugins_dir.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DEFAULT_CONFIG,
		"Path of config file")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the config file, configures logging and registers all adapters.
func setup(cmd *cobra.Command, args []string) error {
	conf, err := config.ParseMQCConfig(configFile)
	if err != nil {
		return err
	}
	mqcConf = conf

	logger.SetDefault(logger.NewMQCLogger(os.Stderr, conf.LogFormat))
	logger.SetLogLevel(conf.GetLogLevel())

	registry := plugin.GetRegistry()
	if err := registerBuiltins(registry); err != nil {
		return err
	}

	if conf.PluginsDir != "" {
		if err := registry.LoadPluginsFromDir(conf.PluginsDir); err != nil {
			// plugins are optional
			logger.Error("Failed to load plugins", slog.Any("error", err))
		}
	}

	config.MqcInfo.Set(1)
	return nil
}

func registerBuiltins(registry *plugin.Registry) error {
	if _, exists := registry.GetPlugin(exampleapi.PLUGIN_NAME); exists {
		return nil
	}
	if err := registry.RegisterConnector(exampleapi.PLUGIN_NAME, func() adapter.Connector { return exampleapi.New() }); err != nil {
		return err
	}
	return registry.RegisterFileReader(xmlreader.PLUGIN_NAME, func() adapter.FileReader { return xmlreader.New() })
}

// signalContext is cancelled on SIGINT, SIGTERM or SIGQUIT.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

func dataSource(name string) (config.DataSource, error) {
	ds, ok := mqcConf.DataSource(name)
	if !ok {
		return ds, fmt.Errorf("unknown data source %q", name)
	}
	return ds, nil
}
