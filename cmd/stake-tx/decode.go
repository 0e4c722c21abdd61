package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/solana-stake-sdk/pkg/solana/stake"
)

var commandDecode = &cli.Command{
	Name:      "decode",
	Usage:     "decode stake instruction data",
	ArgsUsage: "<data>",
	Description: `
Decode a stake instruction payload given as hex (optionally 0x prefixed)
or base64.`,
	Action: runDecode,
}

func runDecode(c *cli.Context) error {
	arg := c.Args().First()
	if arg == "" {
		return errors.New("missing instruction data argument")
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		if raw, err = base64.StdEncoding.DecodeString(arg); err != nil {
			return errors.New("instruction data is neither hex nor base64")
		}
	}

	data, err := stake.Unmarshal(raw)
	if err != nil {
		return err
	}

	switch args := data.(type) {
	case stake.InitializeArgs:
		fmt.Println("Initialize")
		fmt.Printf("  Staker:           %s\n", base58.Encode(args.Authorized.Staker))
		fmt.Printf("  Withdrawer:       %s\n", base58.Encode(args.Authorized.Withdrawer))
		fmt.Printf("  Lockup Timestamp: %d\n", args.Lockup.UnixTimestamp)
		fmt.Printf("  Lockup Epoch:     %d\n", args.Lockup.Epoch)
		fmt.Printf("  Custodian:        %s\n", base58.Encode(args.Lockup.Custodian))
	case stake.DelegateStakeArgs:
		fmt.Println("DelegateStake")
	case stake.DeactivateArgs:
		fmt.Println("Deactivate")
	case stake.WithdrawArgs:
		fmt.Println("Withdraw")
		fmt.Printf("  Lamports: %d\n", args.Lamports)
	}

	return nil
}
