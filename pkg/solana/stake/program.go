package stake

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/system"
)

// ProgramKey is the address of the stake program.
//
// https://explorer.solana.com/address/Stake11111111111111111111111111111111111111
var ProgramKey ed25519.PublicKey

// ConfigKey is the address of the stake config account consulted on
// delegation.
//
// https://explorer.solana.com/address/StakeConfig11111111111111111111111111111111
var ConfigKey ed25519.PublicKey

const (
	// AccountSize is the span of the on chain stake state. Create composites
	// allocate exactly this much space.
	//
	// Reference: https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/state.rs#L60
	AccountSize = 200
)

func init() {
	var err error

	ProgramKey, err = base58.Decode("Stake11111111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	ConfigKey, err = base58.Decode("StakeConfig11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

type InitializeParams struct {
	// From funds the enclosing transaction. It is carried for composition
	// with the create composites and is not referenced by the instruction.
	From  ed25519.PublicKey
	Stake ed25519.PublicKey

	Authorized Authorized
	Lockup     Lockup
}

// Initialize sets the authorities and lockup of an uninitialized stake
// account.
//
// Reference: https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/instruction.rs#L29-L38
func Initialize(params InitializeParams) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Uninitialized stake account
	//   1. [] Rent sysvar
	//
	// Initialize {
	//   authorized: Authorized,
	//   lockup: Lockup,
	// }
	return solana.NewInstruction(
		ProgramKey,
		Marshal(InitializeArgs{
			Authorized: params.Authorized,
			Lockup:     params.Lockup,
		}),
		solana.NewAccountMeta(params.Stake, true),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DelegateStakeParams struct {
	Stake     ed25519.PublicKey
	Authority ed25519.PublicKey
	Vote      ed25519.PublicKey
}

// DelegateStake delegates an initialized stake account to a vote account.
//
// Reference: https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/instruction.rs#L58-L71
func DelegateStake(params DelegateStakeParams) solana.Instruction {
	// # Account references
	//   0. [WRITE] Initialized stake account to be delegated
	//   1. [] Vote account to which this stake will be delegated
	//   2. [] Clock sysvar
	//   3. [] Stake history sysvar
	//   4. [] Address of config account that carries stake config
	//   5. [SIGNER] Stake authority
	return solana.NewInstruction(
		ProgramKey,
		Marshal(DelegateStakeArgs{}),
		solana.NewAccountMeta(params.Stake, false),
		solana.NewReadonlyAccountMeta(params.Vote, false),
		solana.NewReadonlyAccountMeta(system.ClockSysVar, false),
		solana.NewReadonlyAccountMeta(system.StakeHistorySysVar, false),
		solana.NewReadonlyAccountMeta(ConfigKey, false),
		solana.NewReadonlyAccountMeta(params.Authority, true),
	)
}

type DeactivateParams struct {
	Stake     ed25519.PublicKey
	Authority ed25519.PublicKey
}

// Deactivate begins undelegating a delegated stake account; the stake cools
// down over the following epochs.
//
// Reference: https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/instruction.rs#L97-L103
func Deactivate(params DeactivateParams) solana.Instruction {
	// # Account references
	//   0. [WRITE] Delegated stake account
	//   1. [] Clock sysvar
	//   2. [SIGNER] Stake authority
	return solana.NewInstruction(
		ProgramKey,
		Marshal(DeactivateArgs{}),
		solana.NewAccountMeta(params.Stake, false),
		solana.NewReadonlyAccountMeta(system.ClockSysVar, false),
		solana.NewReadonlyAccountMeta(params.Authority, true),
	)
}

type WithdrawParams struct {
	Stake       ed25519.PublicKey
	Withdrawer  ed25519.PublicKey
	Destination ed25519.PublicKey
	Lamports    uint64

	// Custodian must sign when the stake account's lockup is in force.
	Custodian ed25519.PublicKey
}

// Withdraw moves unstaked lamports out of a stake account.
//
// todo: the emitted account list targets the system program id and repeats
// the destination where the stake program documents [stake, destination,
// clock sysvar, stake history sysvar, withdraw authority, custodian]; it
// reproduces the wire behavior this port was verified against. Changing it
// means re-coordinating signers with every consumer.
func Withdraw(params WithdrawParams) solana.Instruction {
	return solana.NewInstruction(
		system.ProgramKey[:],
		Marshal(WithdrawArgs{
			Lamports: params.Lamports,
		}),
		solana.NewAccountMeta(params.Stake, true),
		solana.NewAccountMeta(params.Destination, false),
		solana.NewAccountMeta(params.Destination, false),
		solana.NewAccountMeta(params.Destination, false),
		solana.NewAccountMeta(params.Destination, false),
	)
}

type CreateAccountParams struct {
	From  ed25519.PublicKey
	Stake ed25519.PublicKey

	Authorized Authorized
	Lockup     Lockup
	Lamports   uint64
}

// CreateAccount allocates a stake account owned by the stake program and
// initializes it. The instructions are ordered; allocation must precede
// initialization within the enclosing transaction.
func CreateAccount(params CreateAccountParams) []solana.Instruction {
	return []solana.Instruction{
		system.CreateAccount(
			params.From,
			params.Stake,
			ProgramKey,
			params.Lamports,
			AccountSize,
		),
		Initialize(InitializeParams{
			From:       params.From,
			Stake:      params.Stake,
			Authorized: params.Authorized,
			Lockup:     params.Lockup,
		}),
	}
}

type CreateAccountWithSeedParams struct {
	From  ed25519.PublicKey
	Stake ed25519.PublicKey
	Base  ed25519.PublicKey
	Seed  string

	Authorized Authorized
	Lockup     Lockup
	Lamports   uint64
}

// CreateAccountWithSeed allocates a stake account at an address derived from
// the base account and seed (see solana.CreateWithSeed) and initializes it.
func CreateAccountWithSeed(params CreateAccountWithSeedParams) ([]solana.Instruction, error) {
	if len(params.Seed) > solana.MaxSeedLength {
		return nil, solana.ErrMaxSeedLengthExceeded
	}

	return []solana.Instruction{
		system.CreateAccountWithSeed(
			params.From,
			params.Stake,
			params.Base,
			ProgramKey,
			params.Seed,
			params.Lamports,
			AccountSize,
		),
		Initialize(InitializeParams{
			From:       params.From,
			Stake:      params.Stake,
			Authorized: params.Authorized,
			Lockup:     params.Lockup,
		}),
	}, nil
}

type CreateAccountAndDelegateParams struct {
	From  ed25519.PublicKey
	Stake ed25519.PublicKey
	Vote  ed25519.PublicKey

	Authorized Authorized
	Lockup     Lockup
	Lamports   uint64
}

// CreateAccountAndDelegate allocates a stake account, initializes it, and
// delegates it to the vote account, as one ordered instruction sequence. The
// staker authority signs the delegation.
func CreateAccountAndDelegate(params CreateAccountAndDelegateParams) []solana.Instruction {
	return append(
		CreateAccount(CreateAccountParams{
			From:       params.From,
			Stake:      params.Stake,
			Authorized: params.Authorized,
			Lockup:     params.Lockup,
			Lamports:   params.Lamports,
		}),
		DelegateStake(DelegateStakeParams{
			Stake:     params.Stake,
			Authority: params.Authorized.Staker,
			Vote:      params.Vote,
		}),
	)
}

type CreateAccountWithSeedAndDelegateParams struct {
	From  ed25519.PublicKey
	Stake ed25519.PublicKey
	Base  ed25519.PublicKey
	Seed  string
	Vote  ed25519.PublicKey

	Authorized Authorized
	Lockup     Lockup
	Lamports   uint64
}

// CreateAccountWithSeedAndDelegate is CreateAccountAndDelegate with the
// allocation done at a seed derived address.
func CreateAccountWithSeedAndDelegate(params CreateAccountWithSeedAndDelegateParams) ([]solana.Instruction, error) {
	instructions, err := CreateAccountWithSeed(CreateAccountWithSeedParams{
		From:       params.From,
		Stake:      params.Stake,
		Base:       params.Base,
		Seed:       params.Seed,
		Authorized: params.Authorized,
		Lockup:     params.Lockup,
		Lamports:   params.Lamports,
	})
	if err != nil {
		return nil, err
	}

	return append(instructions, DelegateStake(DelegateStakeParams{
		Stake:     params.Stake,
		Authority: params.Authorized.Staker,
		Vote:      params.Vote,
	})), nil
}

func DecompileInitialize(m solana.Message, index int) (*InitializeParams, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(InstructionTypeInitialize))
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	data, err := Unmarshal(i.Data)
	if err != nil {
		return nil, err
	}
	args := data.(InitializeArgs)

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.Errorf("invalid RentSysVar")
	}

	return &InitializeParams{
		Stake:      m.Accounts[i.Accounts[0]],
		Authorized: args.Authorized,
		Lockup:     args.Lockup,
	}, nil
}

func DecompileDelegateStake(m solana.Message, index int) (*DelegateStakeParams, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(InstructionTypeDelegateStake))
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.Equal(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 6 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.ClockSysVar, m.Accounts[i.Accounts[2]]) {
		return nil, errors.Errorf("invalid ClockSysVar")
	}
	if !bytes.Equal(system.StakeHistorySysVar, m.Accounts[i.Accounts[3]]) {
		return nil, errors.Errorf("invalid StakeHistorySysVar")
	}
	if !bytes.Equal(ConfigKey, m.Accounts[i.Accounts[4]]) {
		return nil, errors.Errorf("invalid stake config account")
	}

	return &DelegateStakeParams{
		Stake:     m.Accounts[i.Accounts[0]],
		Vote:      m.Accounts[i.Accounts[1]],
		Authority: m.Accounts[i.Accounts[5]],
	}, nil
}

func DecompileDeactivate(m solana.Message, index int) (*DeactivateParams, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(InstructionTypeDeactivate))
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.Equal(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.ClockSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.Errorf("invalid ClockSysVar")
	}

	return &DeactivateParams{
		Stake:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[2]],
	}, nil
}

// DecompileWithdraw recovers WithdrawParams from a compiled message. It
// expects the account shape Withdraw emits, repeated destination included.
func DecompileWithdraw(m solana.Message, index int) (*WithdrawParams, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(InstructionTypeWithdraw))
	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], system.ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	data, err := Unmarshal(i.Data)
	if err != nil {
		return nil, err
	}
	args := data.(WithdrawArgs)

	if len(i.Accounts) != 5 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	destination := m.Accounts[i.Accounts[1]]
	for _, accountIndex := range i.Accounts[2:] {
		if !bytes.Equal(destination, m.Accounts[accountIndex]) {
			return nil, errors.Errorf("destination accounts don't match")
		}
	}

	return &WithdrawParams{
		Stake:       m.Accounts[i.Accounts[0]],
		Destination: destination,
		Lamports:    args.Lamports,
	}, nil
}
