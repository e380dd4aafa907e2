/*
weftcli is a command line client for a weft node. It creates keys, signs
transactions and submits them, and prints the state of escrows and token
accounts.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagKey    = "key"
	flagRemote = "tm"
)

func main() {
	root := rootCmd(os.Stdout, func() *client.Client {
		return client.NewHTTPClient(viper.GetString(flagRemote))
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// rootCmd builds the command tree. Every command writes its result to
// output and talks to the node through the client returned by connect.
func rootCmd(output io.Writer, connect func() *client.Client) *cobra.Command {
	root := &cobra.Command{
		Use:           "weftcli",
		Short:         "Client for the weft escrow and randomness node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(output)

	viper.SetEnvPrefix("weftcli")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	defaultKey := filepath.Join(os.ExpandEnv("$HOME"), ".weft.priv.key")
	root.PersistentFlags().String(flagKey, defaultKey, "path to the private key file, also WEFTCLI_KEY")
	root.PersistentFlags().String(flagRemote, "http://localhost:26657", "tendermint rpc address, also WEFTCLI_TM")
	_ = viper.BindPFlag(flagKey, root.PersistentFlags().Lookup(flagKey))
	_ = viper.BindPFlag(flagRemote, root.PersistentFlags().Lookup(flagRemote))

	root.AddCommand(
		keygenCmd(),
		keyaddrCmd(),
		balanceCmd(connect),
		transferCmd(connect),
		escrowCmd(connect),
		&cobra.Command{
			Use:   "version",
			Short: "Print the client version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), weft.Version())
			},
		},
	)
	return root
}
