package stake

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
)

func TestStateRoundTrip(t *testing.T) {
	keys := generateKeys(t, 4)

	state := State{
		Type: StateTypeStake,
		Meta: Meta{
			RentExemptReserve: 2282880,
			Authorized: Authorized{
				Staker:     keys[0],
				Withdrawer: keys[1],
			},
			Lockup: Lockup{
				UnixTimestamp: 1700000000,
				Epoch:         512,
				Custodian:     keys[2],
			},
		},
		Stake: Stake{
			Delegation: Delegation{
				Voter:              keys[3],
				Stake:              5000000000,
				ActivationEpoch:    300,
				DeactivationEpoch:  DeactivationEpochMax,
				WarmupCooldownRate: DefaultWarmupCooldownRate,
			},
			CreditsObserved: 12345,
		},
	}

	data := state.Marshal()
	require.Len(t, data, AccountSize)

	var parsed State
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, state, parsed)
	assert.True(t, parsed.IsInitialized())
	assert.True(t, parsed.IsDelegated())
	assert.True(t, parsed.Stake.Delegation.IsActive())
}

func TestStateLayout(t *testing.T) {
	keys := generateKeys(t, 4)

	timestamp := int64(-5)
	state := State{
		Type: StateTypeStake,
		Meta: Meta{
			RentExemptReserve: 2282880,
			Authorized: Authorized{
				Staker:     keys[0],
				Withdrawer: keys[1],
			},
			Lockup: Lockup{
				UnixTimestamp: timestamp,
				Epoch:         512,
				Custodian:     keys[2],
			},
		},
		Stake: Stake{
			Delegation: Delegation{
				Voter:              keys[3],
				Stake:              5000000000,
				ActivationEpoch:    300,
				DeactivationEpoch:  DeactivationEpochMax,
				WarmupCooldownRate: DefaultWarmupCooldownRate,
			},
			CreditsObserved: 12345,
		},
	}

	data := state.Marshal()
	require.Len(t, data, AccountSize)

	assert.Equal(t, []byte{2, 0, 0, 0}, data[0:4])
	assert.Equal(t, le64(2282880), data[4:12])
	assert.Equal(t, []byte(keys[0]), data[12:44])
	assert.Equal(t, []byte(keys[1]), data[44:76])
	assert.Equal(t, le64(uint64(timestamp)), data[76:84])
	assert.Equal(t, le64(512), data[84:92])
	assert.Equal(t, []byte(keys[2]), data[92:124])
	assert.Equal(t, []byte(keys[3]), data[124:156])
	assert.Equal(t, le64(5000000000), data[156:164])
	assert.Equal(t, le64(300), data[164:172])
	assert.Equal(t, le64(DeactivationEpochMax), data[172:180])
	assert.Equal(t, le64(math.Float64bits(DefaultWarmupCooldownRate)), data[180:188])
	assert.Equal(t, le64(12345), data[188:196])
	assert.Equal(t, make([]byte, 4), data[196:200])
}

func TestStateUninitialized(t *testing.T) {
	var state State

	data := state.Marshal()
	require.Len(t, data, AccountSize)
	assert.Equal(t, make([]byte, AccountSize), data)

	var parsed State
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, StateTypeUninitialized, parsed.Type)
	assert.False(t, parsed.IsInitialized())
	assert.False(t, parsed.IsDelegated())
}

func TestStateInitialized(t *testing.T) {
	keys := generateKeys(t, 3)

	state := State{
		Type: StateTypeInitialized,
		Meta: Meta{
			RentExemptReserve: 1,
			Authorized: Authorized{
				Staker:     keys[0],
				Withdrawer: keys[1],
			},
			Lockup: Lockup{
				Custodian: keys[2],
			},
		},
	}

	// Stake fields are not encoded for initialized accounts.
	state.Stake.CreditsObserved = 999

	data := state.Marshal()
	assert.Equal(t, make([]byte, AccountSize-4-MetaSize), data[4+MetaSize:])

	var parsed State
	require.NoError(t, parsed.Unmarshal(data))
	assert.Equal(t, StateTypeInitialized, parsed.Type)
	assert.Equal(t, state.Meta, parsed.Meta)
	assert.Equal(t, Stake{}, parsed.Stake)
	assert.True(t, parsed.IsInitialized())
	assert.False(t, parsed.IsDelegated())
}

func TestStateRewardsPool(t *testing.T) {
	data := make([]byte, AccountSize)
	binary.LittleEndian.PutUint32(data, uint32(StateTypeRewardsPool))

	var state State
	require.NoError(t, state.Unmarshal(data))
	assert.Equal(t, StateTypeRewardsPool, state.Type)
	assert.False(t, state.IsInitialized())
	assert.False(t, state.IsDelegated())

	assert.Equal(t, data, State{Type: StateTypeRewardsPool}.Marshal())
}

func TestStateInvalid(t *testing.T) {
	var state State

	for _, data := range [][]byte{
		nil,
		make([]byte, AccountSize-1),
		make([]byte, AccountSize+1),
	} {
		assert.Equal(t, ErrInvalidAccountSize, state.Unmarshal(data))
	}

	data := make([]byte, AccountSize)
	binary.LittleEndian.PutUint32(data, 9)
	assert.Equal(t, ErrInvalidStateType, state.Unmarshal(data))
}

func TestGetStateFromAccount(t *testing.T) {
	keys := generateKeys(t, 4)

	expected := State{
		Type: StateTypeInitialized,
		Meta: Meta{
			RentExemptReserve: 2282880,
			Authorized: Authorized{
				Staker:     keys[0],
				Withdrawer: keys[1],
			},
			Lockup: Lockup{
				Custodian: keys[2],
			},
		},
	}

	info := solana.AccountInfo{
		Data:  expected.Marshal(),
		Owner: ProgramKey,
	}

	state, err := GetStateFromAccount(info)
	require.NoError(t, err)
	assert.Equal(t, expected, state)

	info.Owner = keys[3]
	_, err = GetStateFromAccount(info)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "not owned by stake program"))

	info.Owner = ProgramKey
	info.Data = info.Data[:100]
	_, err = GetStateFromAccount(info)
	assert.Equal(t, ErrInvalidAccountSize, err)
}

func TestStateFuzzRoundTrip(t *testing.T) {
	fuzzer := fuzz.New().NilChance(0).NumElements(32, 32)

	for i := 0; i < 128; i++ {
		var state State
		fuzzer.Fuzz(&state.Meta)
		fuzzer.Fuzz(&state.Stake)
		state.Type = StateTypeStake

		var parsed State
		require.NoError(t, parsed.Unmarshal(state.Marshal()))
		assert.Equal(t, state, parsed)
	}
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
