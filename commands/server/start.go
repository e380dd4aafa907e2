package server

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/weft/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind    = "bind"
	flagDebug   = "debug"
	flagMetrics = "metrics"
)

// Options are passed to the AppGenerator.
type Options struct {
	Home   string
	Logger log.Logger
	Debug  bool
	// Metrics is set if the metrics endpoint is enabled. The generator
	// should register an http.Handler under it.
	Metrics *http.ServeMux
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(*Options) (abci.Application, error)

// StartCmd returns a command that runs the abci server until a termination
// signal is received.
func StartCmd(gen AppGenerator, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the abci server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(gen, logger)
		},
	}
	cmd.Flags().String(flagBind, "tcp://localhost:26658", "address server listens on")
	cmd.Flags().Bool(flagDebug, false, "call stack returned on error")
	cmd.Flags().String(flagMetrics, "", "address the prometheus metrics are served on (disabled if empty)")
	for _, name := range []string{flagBind, flagDebug, flagMetrics} {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func start(gen AppGenerator, logger log.Logger) error {
	opts := &Options{
		Home:   viper.GetString(FlagHome),
		Logger: logger,
		Debug:  viper.GetBool(flagDebug),
	}
	metricsAddr := viper.GetString(flagMetrics)
	if metricsAddr != "" {
		opts.Metrics = http.NewServeMux()
	}

	app, err := gen(opts)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		go func() {
			logger.Info("Serving metrics", "bind", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, opts.Metrics); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	addr := viper.GetString(flagBind)
	logger.Info("Starting ABCI app", "bind", addr)

	svr, err := server.NewServer(addr, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrState, "cannot start server: %s", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	logger.Info("Stopping ABCI app", "signal", s.String())
	return svr.Stop()
}
