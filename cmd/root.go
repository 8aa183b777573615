package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const levelTrace = slog.Level(-8)

var (
	configFiles    []string
	level, version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "projgen",
	Short:        "generate request and response views for Go domain types",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion records the build version reported in manifests.
func SetVersion(v string) { version = v }

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&level, "level", "l", "info", "log level (trace, debug, info, warn, error, debug+1, etc)")
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")
}

func parseLevel(s string) slog.Level {
	var ll slog.Level
	if err := (&ll).UnmarshalText([]byte(s)); err != nil {
		if strings.EqualFold(s, "trace") {
			return levelTrace
		}
		panic("invalid log level: " + s)
	}
	return ll
}

func newLogger(ll slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     ll,
	}))
}

// initConfig reads in .env, config file(s) and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	ll := parseLevel(level)
	l := newLogger(ll)
	slog.SetDefault(l)

	if len(configFiles) > 0 {
		// Use config file from the flag.
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/projgen")
		viper.SetConfigType("yaml")
		viper.SetConfigName("projgen")
	}

	viper.SetEnvPrefix("PROJGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		l.With("config", viper.ConfigFileUsed()).Debug("using config file(s)")
	} else {
		l.With("error", err, "config", viper.ConfigFileUsed()).Debug("unable to use config file(s)")
	}
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			if configBytes, err := os.ReadFile(file); err == nil {
				if err = viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
					l.With("error", err, "file", file).Warn("failed to merge config file")
				} else {
					l.With("file", file).Debug("merged config file")
				}
			}
		}
	}
	if len(version) > 0 {
		viper.Set("version", version)
	}

	// A level from config applies only when --level was not given.
	if llstr := viper.GetString("common.log.level"); llstr != "" && !rootCmd.PersistentFlags().Changed("level") {
		slog.SetDefault(newLogger(parseLevel(llstr)))
	}
}
