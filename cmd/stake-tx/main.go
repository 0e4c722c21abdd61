// stake-tx builds unsigned Solana stake transactions entirely offline.
package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/computebudget"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/memo"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/system"
)

var log = logrus.StandardLogger().WithField("type", "cmd/stake-tx")

var (
	payerFlag = &cli.StringFlag{
		Name:  "payer",
		Usage: "fee payer public key (base58)",
	}
	blockhashFlag = &cli.StringFlag{
		Name:  "blockhash",
		Usage: "recent blockhash to seal the message with (base58)",
	}
	nonceAccountFlag = &cli.StringFlag{
		Name:  "nonce-account",
		Usage: "durable nonce account; prepends an AdvanceNonce instruction",
	}
	nonceAuthorityFlag = &cli.StringFlag{
		Name:  "nonce-authority",
		Usage: "authority of the durable nonce account; defaults to the payer",
	}
	nonceValueFlag = &cli.StringFlag{
		Name:  "nonce-value",
		Usage: "current nonce value, used in place of a recent blockhash",
	}
	memoFlag = &cli.StringFlag{
		Name:  "memo",
		Usage: "attach a memo instruction with the given text",
	}
	computeUnitLimitFlag = &cli.Uint64Flag{
		Name:  "compute-unit-limit",
		Usage: "set a compute unit limit for the transaction",
	}
	computeUnitPriceFlag = &cli.Uint64Flag{
		Name:  "compute-unit-price",
		Usage: "set a priority fee in micro-lamports per compute unit",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug logging",
	}
)

var app = &cli.App{
	Name:  "stake-tx",
	Usage: "build unsigned Solana stake transactions offline",
	Flags: []cli.Flag{
		payerFlag,
		blockhashFlag,
		nonceAccountFlag,
		nonceAuthorityFlag,
		nonceValueFlag,
		memoFlag,
		computeUnitLimitFlag,
		computeUnitPriceFlag,
		verboseFlag,
	},
	Before: func(c *cli.Context) error {
		if c.Bool(verboseFlag.Name) {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
	Commands: []*cli.Command{
		commandCreate,
		commandCreateWithSeed,
		commandDelegate,
		commandDeactivate,
		commandWithdraw,
		commandCreateAndDelegate,
		commandDecode,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// emit seals the instructions into an unsigned transaction and prints the
// base64 wire form followed by a readable breakdown. With a nonce account
// configured, an AdvanceNonce instruction is prepended and the nonce value
// stands in for the recent blockhash. Compute budget instructions go ahead
// of the stake instructions, and a memo, when set, goes last.
func emit(c *cli.Context, payer ed25519.PublicKey, instructions []solana.Instruction) error {
	if c.IsSet(computeUnitPriceFlag.Name) {
		instructions = append([]solana.Instruction{computebudget.SetComputeUnitPrice(c.Uint64(computeUnitPriceFlag.Name))}, instructions...)
	}
	if c.IsSet(computeUnitLimitFlag.Name) {
		instructions = append([]solana.Instruction{computebudget.SetComputeUnitLimit(uint32(c.Uint64(computeUnitLimitFlag.Name)))}, instructions...)
	}
	if v := c.String(memoFlag.Name); v != "" {
		instructions = append(instructions, memo.Instruction(v))
	}

	var bh solana.Blockhash

	if c.IsSet(nonceAccountFlag.Name) {
		nonce, err := key(c, nonceAccountFlag.Name)
		if err != nil {
			return err
		}
		authority, err := keyOr(c, nonceAuthorityFlag.Name, payer)
		if err != nil {
			return err
		}
		if bh, err = blockhash(c, nonceValueFlag.Name); err != nil {
			return err
		}

		instructions = append([]solana.Instruction{system.AdvanceNonce(nonce, authority)}, instructions...)

		log.WithField("nonce", base58.Encode(nonce)).Debug("using durable nonce")
	} else if c.IsSet(blockhashFlag.Name) {
		var err error
		if bh, err = blockhash(c, blockhashFlag.Name); err != nil {
			return err
		}
	} else {
		log.Warn("no --blockhash set; the transaction needs one before signing")
	}

	txn := solana.NewTransaction(payer, instructions...)
	txn.SetBlockhash(bh)

	raw := txn.Marshal()
	if len(raw) > solana.MaxTransactionSize {
		log.WithField("size", len(raw)).Warnf("transaction exceeds %d bytes", solana.MaxTransactionSize)
	}

	fmt.Println(base64.StdEncoding.EncodeToString(raw))
	fmt.Println()
	fmt.Println(txn.String())

	return nil
}

func key(c *cli.Context, name string) (ed25519.PublicKey, error) {
	v := c.String(name)
	if v == "" {
		return nil, errors.Errorf("--%s is required", name)
	}

	raw, err := base58.Decode(v)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", name)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid --%s: wrong key size: %d", name, len(raw))
	}

	return raw, nil
}

func keyOr(c *cli.Context, name string, fallback ed25519.PublicKey) (ed25519.PublicKey, error) {
	if c.String(name) == "" {
		return fallback, nil
	}

	return key(c, name)
}

func blockhash(c *cli.Context, name string) (bh solana.Blockhash, err error) {
	v := c.String(name)
	if v == "" {
		return bh, errors.Errorf("--%s is required", name)
	}

	raw, err := base58.Decode(v)
	if err != nil {
		return bh, errors.Wrapf(err, "invalid --%s", name)
	}
	if len(raw) != len(bh) {
		return bh, errors.Errorf("invalid --%s: wrong hash size: %d", name, len(raw))
	}

	copy(bh[:], raw)
	return bh, nil
}
