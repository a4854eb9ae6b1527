// Package cmd implements the sparring CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lhartley/sparring/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sparring",
	Short: "Scripted debates between two AI agents",
	Long: `Sparring runs a structured debate between two AI agents on a topic
you choose. The agents argue in alternating turns, can request web
searches to back their claims, and decide together when the debate
has run its course. Every session is recorded to disk.`,
}

// v is the CLI's viper instance. Package-global viper state leaks
// between tests, so everything goes through this one.
var v = viper.New()

var (
	cfgFile string
	verbose bool
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is "+config.ConfigFile()+")")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func initConfig() {
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sparring")
		v.SetConfigType("yaml")
		v.AddConfigPath(config.ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SPARRING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults and env cover everything.
	_ = v.ReadInConfig()
}

// loadConfig builds the validated configuration from defaults, the
// config file, and SPARRING_* environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "DEBUG"
	}
	return cfg, nil
}
