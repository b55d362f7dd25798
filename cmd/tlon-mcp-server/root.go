package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TLON_MCP"

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tlon-mcp-server",
		Short: "MCP server for Tlon direct messages",
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))

	// Ship connection flags (usable across serve and one-shot commands).
	cmd.PersistentFlags().String("ship-url", "", "Ship HTTP endpoint, e.g. http://localhost:8080.")
	cmd.PersistentFlags().String("ship-name", "", "Ship identity, e.g. ~sampel-palnet.")
	cmd.PersistentFlags().String("ship-code", "", "Ship access code (+code). Prompted when omitted on a terminal.")
	cmd.PersistentFlags().Duration("http-timeout", 30*time.Second, "HTTP request timeout for ship calls.")

	// Global logging flags.
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (defaults to info; debug if --trace).")
	cmd.PersistentFlags().String("log-format", "text", "Logging format: text|json.")
	cmd.PersistentFlags().Bool("log-add-source", false, "Include source file:line in logs.")
	cmd.PersistentFlags().Bool("trace", false, "Print extra debug info to stderr.")

	_ = viper.BindPFlag("ship.url", cmd.PersistentFlags().Lookup("ship-url"))
	_ = viper.BindPFlag("ship.name", cmd.PersistentFlags().Lookup("ship-name"))
	_ = viper.BindPFlag("ship.code", cmd.PersistentFlags().Lookup("ship-code"))
	_ = viper.BindPFlag("ship.http_timeout", cmd.PersistentFlags().Lookup("http-timeout"))
	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("logging.add_source", cmd.PersistentFlags().Lookup("log-add-source"))
	_ = viper.BindPFlag("trace", cmd.PersistentFlags().Lookup("trace"))

	viper.SetDefault("ship.http_timeout", 30*time.Second)
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newContactsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	cfgFile := strings.TrimSpace(viper.GetString("config"))
	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
	}
}
