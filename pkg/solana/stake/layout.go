package stake

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/solana-stake-sdk/pkg/solana/binary"
)

// InstructionType is the discriminant of a stake program instruction. Values
// are part of the wire contract; renumbering breaks every consumer.
type InstructionType uint32

const (
	InstructionTypeInitialize InstructionType = iota
	InstructionTypeDelegateStake
	InstructionTypeDeactivate
	InstructionTypeWithdraw
)

const (
	AuthorizedSize = 2 * ed25519.PublicKeySize
	LockupSize     = ed25519.PublicKeySize + 2*8

	initializeArgsSize = AuthorizedSize + LockupSize
	withdrawArgsSize   = 8
)

var (
	ErrUnknownInstructionType = errors.New("unknown stake instruction type")
	ErrInvalidInstructionData = errors.New("invalid stake instruction data")
)

// Authorized designates the staking and withdrawing authorities of a stake
// account.
type Authorized struct {
	Staker     ed25519.PublicKey
	Withdrawer ed25519.PublicKey
}

// Lockup constrains withdrawals until a timestamp or epoch has passed, unless
// signed off by the custodian.
type Lockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     ed25519.PublicKey
}

// InstructionData is the payload union of the stake program. Each variant
// carries its own discriminant and fixed payload width, so every variant this
// package defines can be encoded; the interface is satisfied only inside this
// package.
type InstructionData interface {
	Type() InstructionType

	payloadSize() int
	marshalPayload(dst []byte, offset *int)
}

// InitializeArgs carry the initial authorities and lockup of a stake account.
type InitializeArgs struct {
	Authorized Authorized
	Lockup     Lockup
}

func (InitializeArgs) Type() InstructionType { return InstructionTypeInitialize }
func (InitializeArgs) payloadSize() int      { return initializeArgsSize }
func (a InitializeArgs) marshalPayload(dst []byte, offset *int) {
	putAuthorized(dst, a.Authorized, offset)
	putLockup(dst, a.Lockup, offset)
}

// DelegateStakeArgs is an empty payload; delegation parameters travel in the
// account list.
type DelegateStakeArgs struct{}

func (DelegateStakeArgs) Type() InstructionType       { return InstructionTypeDelegateStake }
func (DelegateStakeArgs) payloadSize() int            { return 0 }
func (DelegateStakeArgs) marshalPayload([]byte, *int) {}

// DeactivateArgs is an empty payload; the affected accounts travel in the
// account list.
type DeactivateArgs struct{}

func (DeactivateArgs) Type() InstructionType       { return InstructionTypeDeactivate }
func (DeactivateArgs) payloadSize() int            { return 0 }
func (DeactivateArgs) marshalPayload([]byte, *int) {}

// WithdrawArgs carry the lamports to move out of a stake account.
type WithdrawArgs struct {
	Lamports uint64
}

func (WithdrawArgs) Type() InstructionType { return InstructionTypeWithdraw }
func (WithdrawArgs) payloadSize() int      { return withdrawArgsSize }
func (a WithdrawArgs) marshalPayload(dst []byte, offset *int) {
	binary.PutUint64(dst[*offset:], a.Lamports, offset)
}

// Marshal encodes instruction data as a 4 byte little endian discriminant
// followed by the variant's fixed width fields. No padding, no length
// prefixes.
func Marshal(data InstructionData) []byte {
	res := make([]byte, 4+data.payloadSize())

	var offset int
	binary.PutUint32(res[offset:], uint32(data.Type()), &offset)
	data.marshalPayload(res, &offset)

	return res
}

// Unmarshal decodes instruction data produced by Marshal. Unknown
// discriminants are rejected with ErrUnknownInstructionType; buffers shorter
// or longer than the variant's fixed width are rejected with
// ErrInvalidInstructionData.
func Unmarshal(b []byte) (InstructionData, error) {
	if len(b) < 4 {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "missing discriminant: %d bytes", len(b))
	}

	var offset int
	var command uint32
	binary.GetUint32(b[offset:], &command, &offset)

	switch InstructionType(command) {
	case InstructionTypeInitialize:
		if len(b) != 4+initializeArgsSize {
			return nil, errors.Wrapf(ErrInvalidInstructionData, "invalid initialize size: %d", len(b))
		}

		var args InitializeArgs
		getAuthorized(b, &args.Authorized, &offset)
		getLockup(b, &args.Lockup, &offset)
		return args, nil

	case InstructionTypeDelegateStake:
		if len(b) != 4 {
			return nil, errors.Wrapf(ErrInvalidInstructionData, "invalid delegate size: %d", len(b))
		}

		return DelegateStakeArgs{}, nil

	case InstructionTypeDeactivate:
		if len(b) != 4 {
			return nil, errors.Wrapf(ErrInvalidInstructionData, "invalid deactivate size: %d", len(b))
		}

		return DeactivateArgs{}, nil

	case InstructionTypeWithdraw:
		if len(b) != 4+withdrawArgsSize {
			return nil, errors.Wrapf(ErrInvalidInstructionData, "invalid withdraw size: %d", len(b))
		}

		var args WithdrawArgs
		binary.GetUint64(b[offset:], &args.Lamports, &offset)
		return args, nil

	default:
		return nil, errors.Wrapf(ErrUnknownInstructionType, "type %d", command)
	}
}

func putAuthorized(dst []byte, v Authorized, offset *int) {
	binary.PutKey32(dst[*offset:], v.Staker, offset)
	binary.PutKey32(dst[*offset:], v.Withdrawer, offset)
}

func getAuthorized(src []byte, dst *Authorized, offset *int) {
	binary.GetKey32(src[*offset:], &dst.Staker, offset)
	binary.GetKey32(src[*offset:], &dst.Withdrawer, offset)
}

func putLockup(dst []byte, v Lockup, offset *int) {
	binary.PutInt64(dst[*offset:], v.UnixTimestamp, offset)
	binary.PutUint64(dst[*offset:], v.Epoch, offset)
	binary.PutKey32(dst[*offset:], v.Custodian, offset)
}

func getLockup(src []byte, dst *Lockup, offset *int) {
	binary.GetInt64(src[*offset:], &dst.UnixTimestamp, offset)
	binary.GetUint64(src[*offset:], &dst.Epoch, offset)
	binary.GetKey32(src[*offset:], &dst.Custodian, offset)
}
