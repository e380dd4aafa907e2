package main

import (
	"fmt"
	"math"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/client"
	"github.com/iov-one/weft/x/escrow"
	"github.com/iov-one/weft/x/token"
	"github.com/spf13/cobra"
)

func escrowCmd(connect func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Make, take, refund and inspect escrows",
	}
	cmd.AddCommand(
		escrowMakeCmd(connect),
		escrowTakeCmd(connect),
		escrowRefundCmd(connect),
		escrowShowCmd(connect),
	)
	return cmd
}

func escrowMakeCmd(connect func() *client.Client) *cobra.Command {
	var (
		seed     uint64
		deposit  uint64
		receive  uint64
		taskID   uint32
		lifetime time.Duration
	)
	cmd := &cobra.Command{
		Use:   "make <mint a> <mint b>",
		Short: "Deposit tokens of mint a in exchange for tokens of mint b",
		Long: `Deposit tokens of mint a in exchange for tokens of mint b.

The deposit is refunded automatically if nobody takes the offer before the
refund delay configured on the chain passes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			maker := key.PublicKey().Address()
			mintA := mintAddress(args[0])

			escrowAddr, escrowBump, err := escrow.FindEscrowAddress(maker, seed)
			if err != nil {
				return err
			}
			queueAuthority, queueBump, err := escrow.FindQueueAuthority()
			if err != nil {
				return err
			}
			if taskID == 0 {
				// Task ids are 16 bits wide.
				taskID = uint32(seed & math.MaxUint16)
			}
			msg := &escrow.MakeMsg{
				Metadata:           &weft.Metadata{Schema: 1},
				Maker:              maker,
				Seed:               seed,
				Deposit:            deposit,
				Receive:            receive,
				TaskID:             taskID,
				Expiry:             weft.AsUnixTime(time.Now().Add(lifetime)),
				MintA:              mintA,
				MintB:              mintAddress(args[1]),
				Escrow:             escrowAddr,
				EscrowBump:         uint32(escrowBump),
				Vault:              token.AssociatedAddress(escrowAddr, mintA),
				QueueAuthority:     queueAuthority,
				QueueAuthorityBump: uint32(queueBump),
			}
			res, err := signAndSubmit(cmd.Context(), connect(), key, msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "escrow %s\n", escrowAddr)
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed distinguishing escrows of the same maker")
	cmd.Flags().Uint64Var(&deposit, "deposit", 0, "amount of mint a to deposit")
	cmd.Flags().Uint64Var(&receive, "receive", 0, "amount of mint b to receive")
	cmd.Flags().Uint32Var(&taskID, "task", 0, "id of the refund task, defaults to the low 16 bits of the seed")
	cmd.Flags().DurationVar(&lifetime, "expire-in", 30*24*time.Hour, "time after which the escrow can no longer be taken")
	return cmd
}

func escrowTakeCmd(connect func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "take <escrow>",
		Short: "Pay the asked amount and receive the deposit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			addr, err := weft.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid escrow: %s", err)
			}
			msg := &escrow.TakeMsg{
				Metadata: &weft.Metadata{Schema: 1},
				Taker:    key.PublicKey().Address(),
				Escrow:   addr,
			}
			res, err := signAndSubmit(cmd.Context(), connect(), key, msg)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func escrowRefundCmd(connect func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <escrow>",
		Short: "Return the deposit to the maker and close the escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadKey()
			if err != nil {
				return err
			}
			addr, err := weft.ParseAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid escrow: %s", err)
			}
			msg := &escrow.RefundMsg{
				Metadata: &weft.Metadata{Schema: 1},
				Maker:    key.PublicKey().Address(),
				Escrow:   addr,
			}
			res, err := signAndSubmit(cmd.Context(), connect(), key, msg)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func escrowShowCmd(connect func() *client.Client) *cobra.Command {
	var maker string
	cmd := &cobra.Command{
		Use:   "show [escrow]",
		Short: "Print an escrow, or all escrows of a maker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := connect()
			if len(args) == 1 {
				addr, err := weft.ParseAddress(args[0])
				if err != nil {
					return fmt.Errorf("invalid escrow: %s", err)
				}
				e, err := c.Escrow(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), e)
			}

			var owner weft.Address
			if maker != "" {
				addr, err := weft.ParseAddress(maker)
				if err != nil {
					return fmt.Errorf("invalid maker: %s", err)
				}
				owner = addr
			} else {
				key, err := loadKey()
				if err != nil {
					return err
				}
				owner = key.PublicKey().Address()
			}
			escrows, err := c.EscrowsByMaker(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), escrows)
		},
	}
	cmd.Flags().StringVar(&maker, "maker", "", "list escrows of this maker instead of your key")
	return cmd
}
