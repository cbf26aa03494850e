package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paolorotolo/rv-joiner/joiner/compose"
)

var cfg = viper.New()

var rootCmd = &cobra.Command{
	Use:   "rvjoin",
	Short: "rvjoin - compose ordered sources into one joined list",
	Long: `rvjoin builds a joined list from a YAML manifest of sources and
renders it. Sources keep their own local positions and type tags; the
joiner maps them into one contiguous position space and one joined
type ID space.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (RVJOIN_*)
3. Configuration files (custom path or default locations)

Configuration File Discovery:
  RVJOIN_CONFIG=/path/to/config.yaml  # Custom config file path
  ~/.rvjoin/config.yaml               # User directory
  /etc/rvjoin/config.yaml             # System directory

Examples:
  # Render the composition described by ./rvjoin.yaml
  rvjoin render

  # Render a specific manifest as JSON
  rvjoin render --manifest compositions/inbox.yaml --format json

  # Dump the type and position tables behind the joined list
  rvjoin inspect

  # Keep rendering as file and database sources change
  rvjoin watch --manifest inbox.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return initLogging(cfg.GetString("log-level"), cfg.GetBool("verbose"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("manifest", "m", "rvjoin.yaml", "Manifest file path")
	rootCmd.PersistentFlags().StringP("format", "f", "table", "Output format: table|json")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror logs to stderr")

	setupConfig()

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
}

// setupConfig wires viper to the RVJOIN_ environment and the config
// file locations. The manifest itself is not a config file; it is named
// by the manifest key.
func setupConfig() {
	if configFile := os.Getenv("RVJOIN_CONFIG"); configFile != "" {
		cfg.SetConfigFile(configFile)
	} else {
		cfg.SetConfigName("config")
		cfg.SetConfigType("yaml")
		cfg.AddConfigPath("$HOME/.rvjoin")
		cfg.AddConfigPath("/etc/rvjoin")
	}

	cfg.AutomaticEnv()
	cfg.SetEnvPrefix("RVJOIN")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = cfg.ReadInConfig()
}

// loadComposition builds the composition named by the manifest flag.
func loadComposition() (*compose.Composition, error) {
	path := cfg.GetString("manifest")
	m, err := compose.Load(path)
	if err != nil {
		return nil, err
	}
	comp, err := m.Build()
	if err != nil {
		return nil, err
	}
	slog.Info("composition built",
		"manifest", path,
		"sources", len(comp.Sources),
		"items", comp.Joiner.ItemCount(),
		"types", comp.Joiner.TypeCount())
	return comp, nil
}
