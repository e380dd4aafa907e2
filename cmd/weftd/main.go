package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/weft"
	baseapp "github.com/iov-one/weft/app"
	"github.com/iov-one/weft/cmd/weftd/app"
	"github.com/iov-one/weft/commands/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const flagLogLevel = "log-level"

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "weft")

	root := &cobra.Command{
		Use:   "weftd",
		Short: "Escrow and randomness ABCI application",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".weftd")
	root.PersistentFlags().String(server.FlagHome, defaultHome, "directory to store files under")
	root.PersistentFlags().String(flagLogLevel, "info", "minimal level of logged messages (debug, info, error, none)")
	_ = viper.BindPFlag(server.FlagHome, root.PersistentFlags().Lookup(server.FlagHome))
	_ = viper.BindPFlag(flagLogLevel, root.PersistentFlags().Lookup(flagLogLevel))

	filtered := &levelLogger{Logger: logger}
	root.AddCommand(
		server.InitCmd(app.GenInitOptions, filtered),
		server.StartCmd(generateApp, filtered),
		&cobra.Command{
			Use:   "version",
			Short: "Print the app version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(weft.Version())
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

// initConfig reads the optional config file from the home directory. Every
// flag can also be set with a WEFT_ prefixed environment variable.
func initConfig() error {
	viper.SetEnvPrefix("weft")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("weftd")
	viper.AddConfigPath(filepath.Join(viper.GetString(server.FlagHome), "config"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func generateApp(opts *server.Options) (abci.Application, error) {
	var metrics *baseapp.Metrics
	if opts.Metrics != nil {
		metrics = baseapp.NewMetrics()
		opts.Metrics.Handle("/metrics", metrics.Handler())
	}
	return app.GenerateApp(&app.Options{
		Home:    opts.Home,
		Logger:  opts.Logger,
		Debug:   opts.Debug,
		Metrics: metrics,
	})
}

// levelLogger applies the configured log level lazily, because flags are
// parsed after the commands are created.
type levelLogger struct {
	log.Logger
	filtered log.Logger
}

func (l *levelLogger) get() log.Logger {
	if l.filtered == nil {
		option, err := log.AllowLevel(viper.GetString(flagLogLevel))
		if err != nil {
			option = log.AllowInfo()
		}
		l.filtered = log.NewFilter(l.Logger, option)
	}
	return l.filtered
}

func (l *levelLogger) Debug(msg string, keyvals ...interface{}) { l.get().Debug(msg, keyvals...) }
func (l *levelLogger) Info(msg string, keyvals ...interface{})  { l.get().Info(msg, keyvals...) }
func (l *levelLogger) Error(msg string, keyvals ...interface{}) { l.get().Error(msg, keyvals...) }
func (l *levelLogger) With(keyvals ...interface{}) log.Logger   { return l.get().With(keyvals...) }
