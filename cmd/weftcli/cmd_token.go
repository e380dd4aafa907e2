package main

import (
	"fmt"
	"strconv"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/client"
	"github.com/iov-one/weft/x/token"
	"github.com/spf13/cobra"
)

func balanceCmd(connect func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <mint> [owner]",
		Short: "Print the token balance of an owner, by default of your key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner weft.Address
			if len(args) == 2 {
				addr, err := weft.ParseAddress(args[1])
				if err != nil {
					return fmt.Errorf("invalid owner: %s", err)
				}
				owner = addr
			} else {
				key, err := loadKey()
				if err != nil {
					return err
				}
				owner = key.PublicKey().Address()
			}
			amount, err := connect().Balance(cmd.Context(), owner, mintAddress(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), amount)
			return nil
		},
	}
	return cmd
}

func transferCmd(connect func() *client.Client) *cobra.Command {
	var decimals uint32
	cmd := &cobra.Command{
		Use:   "transfer <mint> <destination> <amount>",
		Short: "Send tokens to another owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			dst, err := weft.ParseAddress(args[1])
			if err != nil {
				return fmt.Errorf("invalid destination: %s", err)
			}
			amount, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %s", err)
			}
			msg := &token.TransferMsg{
				Metadata:    &weft.Metadata{Schema: 1},
				Source:      key.PublicKey().Address(),
				Destination: dst,
				Mint:        mintAddress(args[0]),
				Amount:      amount,
				Decimals:    decimals,
			}
			res, err := signAndSubmit(cmd.Context(), connect(), key, msg)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&decimals, "decimals", 6, "decimals of the mint")
	return cmd
}
