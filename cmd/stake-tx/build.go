package main

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/stake"
)

var (
	stakeFlag = &cli.StringFlag{
		Name:  "stake",
		Usage: "stake account public key (base58)",
	}
	baseFlag = &cli.StringFlag{
		Name:  "base",
		Usage: "base account for seed derivation; defaults to the payer",
	}
	seedFlag = &cli.StringFlag{
		Name:  "seed",
		Usage: "seed for the derived stake account address",
	}
	voteFlag = &cli.StringFlag{
		Name:  "vote",
		Usage: "vote account to delegate to",
	}
	authorityFlag = &cli.StringFlag{
		Name:  "authority",
		Usage: "stake authority; defaults to the payer",
	}
	stakerFlag = &cli.StringFlag{
		Name:  "staker",
		Usage: "staker authority; defaults to the payer",
	}
	withdrawerFlag = &cli.StringFlag{
		Name:  "withdrawer",
		Usage: "withdraw authority; defaults to the payer",
	}
	destinationFlag = &cli.StringFlag{
		Name:  "destination",
		Usage: "account receiving the withdrawn lamports",
	}
	custodianFlag = &cli.StringFlag{
		Name:  "custodian",
		Usage: "lockup custodian",
	}
	lamportsFlag = &cli.Uint64Flag{
		Name:  "lamports",
		Usage: "amount in lamports",
	}
	lockupTimestampFlag = &cli.Int64Flag{
		Name:  "lockup-timestamp",
		Usage: "unix timestamp until which withdrawals are locked",
	}
	lockupEpochFlag = &cli.Uint64Flag{
		Name:  "lockup-epoch",
		Usage: "epoch until which withdrawals are locked",
	}
)

var commandCreate = &cli.Command{
	Name:  "create",
	Usage: "create and initialize a stake account",
	Flags: []cli.Flag{
		stakeFlag,
		stakerFlag,
		withdrawerFlag,
		lamportsFlag,
		lockupTimestampFlag,
		lockupEpochFlag,
		custodianFlag,
	},
	Action: runCreate,
}

var commandCreateWithSeed = &cli.Command{
	Name:  "create-with-seed",
	Usage: "create and initialize a stake account at a seed derived address",
	Flags: []cli.Flag{
		baseFlag,
		seedFlag,
		stakerFlag,
		withdrawerFlag,
		lamportsFlag,
		lockupTimestampFlag,
		lockupEpochFlag,
		custodianFlag,
	},
	Action: runCreateWithSeed,
}

var commandDelegate = &cli.Command{
	Name:  "delegate",
	Usage: "delegate an initialized stake account to a vote account",
	Flags: []cli.Flag{
		stakeFlag,
		voteFlag,
		authorityFlag,
	},
	Action: runDelegate,
}

var commandDeactivate = &cli.Command{
	Name:  "deactivate",
	Usage: "begin undelegating a delegated stake account",
	Flags: []cli.Flag{
		stakeFlag,
		authorityFlag,
	},
	Action: runDeactivate,
}

var commandWithdraw = &cli.Command{
	Name:  "withdraw",
	Usage: "withdraw unstaked lamports out of a stake account",
	Flags: []cli.Flag{
		stakeFlag,
		withdrawerFlag,
		destinationFlag,
		lamportsFlag,
		custodianFlag,
	},
	Action: runWithdraw,
}

var commandCreateAndDelegate = &cli.Command{
	Name:  "create-and-delegate",
	Usage: "create, initialize, and delegate a stake account in one transaction",
	Flags: []cli.Flag{
		stakeFlag,
		baseFlag,
		seedFlag,
		voteFlag,
		stakerFlag,
		withdrawerFlag,
		lamportsFlag,
		lockupTimestampFlag,
		lockupEpochFlag,
		custodianFlag,
	},
	Action: runCreateAndDelegate,
}

func runCreate(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	stakeAccount, err := key(c, stakeFlag.Name)
	if err != nil {
		return err
	}
	authorized, lockup, err := authorities(c, payer)
	if err != nil {
		return err
	}

	return emit(c, payer, stake.CreateAccount(stake.CreateAccountParams{
		From:       payer,
		Stake:      stakeAccount,
		Authorized: authorized,
		Lockup:     lockup,
		Lamports:   c.Uint64(lamportsFlag.Name),
	}))
}

func runCreateWithSeed(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	base, derived, err := deriveStake(c, payer)
	if err != nil {
		return err
	}
	authorized, lockup, err := authorities(c, payer)
	if err != nil {
		return err
	}

	instructions, err := stake.CreateAccountWithSeed(stake.CreateAccountWithSeedParams{
		From:       payer,
		Stake:      derived,
		Base:       base,
		Seed:       c.String(seedFlag.Name),
		Authorized: authorized,
		Lockup:     lockup,
		Lamports:   c.Uint64(lamportsFlag.Name),
	})
	if err != nil {
		return err
	}

	return emit(c, payer, instructions)
}

func runDelegate(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	stakeAccount, err := key(c, stakeFlag.Name)
	if err != nil {
		return err
	}
	vote, err := key(c, voteFlag.Name)
	if err != nil {
		return err
	}
	authority, err := keyOr(c, authorityFlag.Name, payer)
	if err != nil {
		return err
	}

	return emit(c, payer, []solana.Instruction{stake.DelegateStake(stake.DelegateStakeParams{
		Stake:     stakeAccount,
		Authority: authority,
		Vote:      vote,
	})})
}

func runDeactivate(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	stakeAccount, err := key(c, stakeFlag.Name)
	if err != nil {
		return err
	}
	authority, err := keyOr(c, authorityFlag.Name, payer)
	if err != nil {
		return err
	}

	return emit(c, payer, []solana.Instruction{stake.Deactivate(stake.DeactivateParams{
		Stake:     stakeAccount,
		Authority: authority,
	})})
}

func runWithdraw(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	stakeAccount, err := key(c, stakeFlag.Name)
	if err != nil {
		return err
	}
	withdrawer, err := keyOr(c, withdrawerFlag.Name, payer)
	if err != nil {
		return err
	}
	destination, err := key(c, destinationFlag.Name)
	if err != nil {
		return err
	}

	var custodian ed25519.PublicKey
	if c.String(custodianFlag.Name) != "" {
		if custodian, err = key(c, custodianFlag.Name); err != nil {
			return err
		}
	}

	return emit(c, payer, []solana.Instruction{stake.Withdraw(stake.WithdrawParams{
		Stake:       stakeAccount,
		Withdrawer:  withdrawer,
		Destination: destination,
		Lamports:    c.Uint64(lamportsFlag.Name),
		Custodian:   custodian,
	})})
}

func runCreateAndDelegate(c *cli.Context) error {
	payer, err := key(c, payerFlag.Name)
	if err != nil {
		return err
	}
	vote, err := key(c, voteFlag.Name)
	if err != nil {
		return err
	}
	authorized, lockup, err := authorities(c, payer)
	if err != nil {
		return err
	}
	lamports := c.Uint64(lamportsFlag.Name)

	if c.IsSet(seedFlag.Name) {
		base, derived, err := deriveStake(c, payer)
		if err != nil {
			return err
		}

		instructions, err := stake.CreateAccountWithSeedAndDelegate(stake.CreateAccountWithSeedAndDelegateParams{
			From:       payer,
			Stake:      derived,
			Base:       base,
			Seed:       c.String(seedFlag.Name),
			Vote:       vote,
			Authorized: authorized,
			Lockup:     lockup,
			Lamports:   lamports,
		})
		if err != nil {
			return err
		}

		return emit(c, payer, instructions)
	}

	stakeAccount, err := key(c, stakeFlag.Name)
	if err != nil {
		return err
	}

	return emit(c, payer, stake.CreateAccountAndDelegate(stake.CreateAccountAndDelegateParams{
		From:       payer,
		Stake:      stakeAccount,
		Vote:       vote,
		Authorized: authorized,
		Lockup:     lockup,
		Lamports:   lamports,
	}))
}

func deriveStake(c *cli.Context, payer ed25519.PublicKey) (base, derived ed25519.PublicKey, err error) {
	if base, err = keyOr(c, baseFlag.Name, payer); err != nil {
		return nil, nil, err
	}

	derived, err = solana.CreateWithSeed(base, c.String(seedFlag.Name), stake.ProgramKey)
	if err != nil {
		return nil, nil, err
	}

	log.WithField("stake", base58.Encode(derived)).Info("derived stake account")
	return base, derived, nil
}

func authorities(c *cli.Context, payer ed25519.PublicKey) (stake.Authorized, stake.Lockup, error) {
	staker, err := keyOr(c, stakerFlag.Name, payer)
	if err != nil {
		return stake.Authorized{}, stake.Lockup{}, err
	}
	withdrawer, err := keyOr(c, withdrawerFlag.Name, payer)
	if err != nil {
		return stake.Authorized{}, stake.Lockup{}, err
	}

	var custodian ed25519.PublicKey
	if c.String(custodianFlag.Name) != "" {
		if custodian, err = key(c, custodianFlag.Name); err != nil {
			return stake.Authorized{}, stake.Lockup{}, err
		}
	}

	authorized := stake.Authorized{
		Staker:     staker,
		Withdrawer: withdrawer,
	}
	lockup := stake.Lockup{
		UnixTimestamp: c.Int64(lockupTimestampFlag.Name),
		Epoch:         c.Uint64(lockupEpochFlag.Name),
		Custodian:     custodian,
	}

	return authorized, lockup, nil
}
