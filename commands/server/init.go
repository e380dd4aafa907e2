package server

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/weft/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// FlagHome is the directory all node files are stored in.
	FlagHome    = "home"
	flagChainID = "chain-id"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd will initialize the genesis file with proper app_state. If no
// genesis file exists in the home directory, a new one is created.
func InitCmd(gen GenOptions, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [address]",
		Short: "Initialize app_state in the genesis file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home := viper.GetString(FlagHome)
			chainID := viper.GetString(flagChainID)
			return InitGenesis(gen, logger, home, chainID, args)
		},
	}
	cmd.Flags().String(flagChainID, "", "chain id of a newly created genesis file (random if empty)")
	_ = viper.BindPFlag(flagChainID, cmd.Flags().Lookup(flagChainID))
	return cmd
}

// GenesisFile returns the path of the genesis file in given home directory.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// InitGenesis adds the generated app_state to the genesis file in home.
func InitGenesis(gen GenOptions, logger log.Logger, home, chainID string, args []string) error {
	options, err := gen(args)
	if err != nil {
		return err
	}

	genFile := GenesisFile(home)
	if !fileExists(genFile) {
		if chainID == "" {
			chainID = fmt.Sprintf("weft-devnet-%v", cmn.RandStr(6))
		}
		if err := createGenesis(genFile, chainID); err != nil {
			return err
		}
		logger.Info("Generated genesis file", "path", genFile, "chain_id", chainID)
	} else {
		logger.Info("Found genesis file", "path", genFile)
	}
	return addGenesisOptions(genFile, options)
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func createGenesis(filename, chainID string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	doc := map[string]interface{}{
		"genesis_time": time.Now().UTC(),
		"chain_id":     chainID,
		"app_state":    json.RawMessage(`{}`),
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, out, 0600)
}

func addGenesisOptions(filename string, options json.RawMessage) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis file: %s", err)
	}

	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, out, 0600)
}
