package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/iov-one/weft/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ed25519"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new private key",
		Long: `Generate a new private key.

When successful a new file with binary content containing private key is
created. This command fails if the private key file already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString(flagKey)
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				return fmt.Errorf("private key file %q already exists, delete this file and try again", path)
			}

			_, priv, err := ed25519.GenerateKey(nil)
			if err != nil {
				return fmt.Errorf("cannot generate ed25519 key: %s", err)
			}
			fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return fmt.Errorf("cannot create private key file: %s", err)
			}
			defer fd.Close()

			if _, err := fd.Write(priv); err != nil {
				return fmt.Errorf("cannot write private key: %s", err)
			}
			if err := fd.Close(); err != nil {
				return fmt.Errorf("cannot close private key file: %s", err)
			}
			return nil
		},
	}
}

func keyaddrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keyaddr",
		Short: "Print the address of your private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PublicKey().Address())
			return nil
		},
	}
}

func loadKey() (*crypto.PrivateKey, error) {
	path := viper.GetString(flagKey)
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read private key file: %s", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", len(raw))
	}
	return &crypto.PrivateKey{Ed25519: raw}, nil
}
