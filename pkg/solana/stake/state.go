package stake

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
	"github.com/code-payments/solana-stake-sdk/pkg/solana/binary"
)

// StateType is the discriminant of the on chain stake state enum.
type StateType uint32

const (
	StateTypeUninitialized StateType = iota
	StateTypeInitialized
	StateTypeStake
	StateTypeRewardsPool
)

const (
	MetaSize       = 8 + AuthorizedSize + LockupSize
	DelegationSize = ed25519.PublicKeySize + 4*8
	StakeSize      = DelegationSize + 8
)

// DeactivationEpochMax marks a delegation with no deactivation scheduled.
const DeactivationEpochMax = ^uint64(0)

// DefaultWarmupCooldownRate is the fraction of stake that can activate or
// deactivate per epoch.
const DefaultWarmupCooldownRate = 0.25

var (
	ErrInvalidAccountSize = errors.New("invalid stake account size")
	ErrInvalidStateType   = errors.New("invalid stake state type")
)

// https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/state.rs#L134
type Meta struct {
	RentExemptReserve uint64
	Authorized        Authorized
	Lockup            Lockup
}

// https://github.com/solana-labs/solana/blob/7af48465faf184f4c6d6b4a16ca55fbdb8bd97d9/sdk/program/src/stake/state.rs#L414
type Delegation struct {
	Voter              ed25519.PublicKey
	Stake              uint64
	ActivationEpoch    uint64
	DeactivationEpoch  uint64
	WarmupCooldownRate float64
}

// IsActive reports whether no deactivation has been scheduled.
func (obj Delegation) IsActive() bool {
	return obj.DeactivationEpoch == DeactivationEpochMax
}

type Stake struct {
	Delegation      Delegation
	CreditsObserved uint64
}

// State is the full on chain state of a stake account. Meta is populated for
// initialized and delegated accounts; Stake only for delegated ones.
type State struct {
	Type  StateType
	Meta  Meta
	Stake Stake
}

func (obj State) IsInitialized() bool {
	return obj.Type == StateTypeInitialized || obj.Type == StateTypeStake
}

func (obj State) IsDelegated() bool {
	return obj.Type == StateTypeStake
}

// Marshal renders the state as account data, AccountSize bytes, unused
// trailing bytes zeroed.
func (obj State) Marshal() []byte {
	res := make([]byte, AccountSize)

	var offset int
	binary.PutUint32(res[offset:], uint32(obj.Type), &offset)

	switch obj.Type {
	case StateTypeInitialized:
		putMeta(res, obj.Meta, &offset)
	case StateTypeStake:
		putMeta(res, obj.Meta, &offset)
		putStake(res, obj.Stake, &offset)
	}

	return res
}

func (obj *State) Unmarshal(data []byte) error {
	if len(data) != AccountSize {
		return ErrInvalidAccountSize
	}

	var offset int
	var tag uint32
	binary.GetUint32(data[offset:], &tag, &offset)

	obj.Type = StateType(tag)
	switch obj.Type {
	case StateTypeUninitialized, StateTypeRewardsPool:
		return nil
	case StateTypeInitialized:
		getMeta(data, &obj.Meta, &offset)
		return nil
	case StateTypeStake:
		getMeta(data, &obj.Meta, &offset)
		getStake(data, &obj.Stake, &offset)
		return nil
	default:
		return ErrInvalidStateType
	}
}

// GetStateFromAccount parses the stake state out of fetched account data.
func GetStateFromAccount(info solana.AccountInfo) (state State, err error) {
	if !bytes.Equal(info.Owner, ProgramKey) {
		return state, errors.Errorf("invalid stake account (not owned by stake program)")
	}

	if err = state.Unmarshal(info.Data); err != nil {
		return state, err
	}

	return state, nil
}

func putMeta(dst []byte, v Meta, offset *int) {
	binary.PutUint64(dst[*offset:], v.RentExemptReserve, offset)
	putAuthorized(dst, v.Authorized, offset)
	putLockup(dst, v.Lockup, offset)
}

func getMeta(src []byte, dst *Meta, offset *int) {
	binary.GetUint64(src[*offset:], &dst.RentExemptReserve, offset)
	getAuthorized(src, &dst.Authorized, offset)
	getLockup(src, &dst.Lockup, offset)
}

func putDelegation(dst []byte, v Delegation, offset *int) {
	binary.PutKey32(dst[*offset:], v.Voter, offset)
	binary.PutUint64(dst[*offset:], v.Stake, offset)
	binary.PutUint64(dst[*offset:], v.ActivationEpoch, offset)
	binary.PutUint64(dst[*offset:], v.DeactivationEpoch, offset)
	binary.PutFloat64(dst[*offset:], v.WarmupCooldownRate, offset)
}

func getDelegation(src []byte, dst *Delegation, offset *int) {
	binary.GetKey32(src[*offset:], &dst.Voter, offset)
	binary.GetUint64(src[*offset:], &dst.Stake, offset)
	binary.GetUint64(src[*offset:], &dst.ActivationEpoch, offset)
	binary.GetUint64(src[*offset:], &dst.DeactivationEpoch, offset)
	binary.GetFloat64(src[*offset:], &dst.WarmupCooldownRate, offset)
}

func putStake(dst []byte, v Stake, offset *int) {
	putDelegation(dst, v.Delegation, offset)
	binary.PutUint64(dst[*offset:], v.CreditsObserved, offset)
}

func getStake(src []byte, dst *Stake, offset *int) {
	getDelegation(src, &dst.Delegation, offset)
	binary.GetUint64(src[*offset:], &dst.CreditsObserved, offset)
}
