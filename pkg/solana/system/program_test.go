package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
)

func TestCreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, []byte(keys[2]), instruction.Data[20:52])

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewTransaction(keys[0], instruction).Marshal()))

	decompiled, err := DecompileCreateAccount(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, decompiled.Funder, keys[0])
	assert.Equal(t, decompiled.Address, keys[1])
	assert.Equal(t, decompiled.Owner, keys[2])
	assert.EqualValues(t, decompiled.Lamports, 12345)
	assert.EqualValues(t, decompiled.Size, 67890)
}

func TestDecompileNonCreate(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.BigEndian.PutUint32(instruction.Data, commandAllocate)
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 1)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "instruction doesn't exist"))
}

func TestCreateAccountWithSeed(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccountWithSeed(keys[0], keys[1], keys[2], keys[3], "stake:0", 12345, 67890)

	command := make([]byte, 4)
	binary.LittleEndian.PutUint32(command, commandCreateAccountWithSeed)
	seedLen := make([]byte, 8)
	binary.LittleEndian.PutUint64(seedLen, 7)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, []byte(keys[2]), instruction.Data[4:36])
	assert.Equal(t, seedLen, instruction.Data[36:44])
	assert.Equal(t, []byte("stake:0"), instruction.Data[44:51])
	assert.Equal(t, lamports, instruction.Data[51:59])
	assert.Equal(t, size, instruction.Data[59:67])
	assert.Equal(t, []byte(keys[3]), instruction.Data[67:99])

	require.Len(t, instruction.Accounts, 3)
	assert.EqualValues(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.EqualValues(t, keys[1], instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.EqualValues(t, keys[2], instruction.Accounts[2].PublicKey)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewTransaction(keys[0], instruction).Marshal()))

	decompiled, err := DecompileCreateAccountWithSeed(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, decompiled.Funder, keys[0])
	assert.Equal(t, decompiled.Address, keys[1])
	assert.Equal(t, decompiled.Base, keys[2])
	assert.Equal(t, decompiled.Seed, "stake:0")
	assert.Equal(t, decompiled.Owner, keys[3])
	assert.EqualValues(t, decompiled.Lamports, 12345)
	assert.EqualValues(t, decompiled.Size, 67890)
}

func TestCreateAccountWithSeedSelfFunded(t *testing.T) {
	keys := generateKeys(t, 3)

	// The base meta is omitted when the funder is the base.
	instruction := CreateAccountWithSeed(keys[0], keys[1], keys[0], keys[2], "seed", 1, 2)
	require.Len(t, instruction.Accounts, 2)

	decompiled, err := DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, decompiled.Base, keys[0])
	assert.Equal(t, decompiled.Seed, "seed")
}

func TestDecompileNonCreateWithSeed(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccountWithSeed(keys[0], keys[1], keys[2], keys[3], "seed", 1, 2)

	instruction.Data = instruction.Data[:20]
	_, err := DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid instruction data size"), err)

	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.LittleEndian.PutUint32(instruction.Data, commandCreateAccount)
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileCreateAccountWithSeed(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestAdvanceNonceAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := AdvanceNonce(keys[0], keys[1])

	command := make([]byte, 4)
	binary.LittleEndian.PutUint32(command, commandAdvanceNonceAccount)
	assert.EqualValues(t, command, instruction.Data)
	assert.EqualValues(t, ProgramKey[:], instruction.Program)

	require.Len(t, instruction.Accounts, 3)

	assert.EqualValues(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)

	assert.EqualValues(t, RecentBlockhashesSysVar, instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	assert.EqualValues(t, keys[1], instruction.Accounts[2].PublicKey)
	assert.True(t, instruction.Accounts[2].IsSigner)

	decompiled, err := DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Nonce)
	assert.EqualValues(t, keys[1], decompiled.Authority)

	instruction.Accounts[1].PublicKey = keys[2]
	_, err = DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid RecentBlockhashesSysVar"))

	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))

	binary.LittleEndian.PutUint32(instruction.Data, commandCreateAccount)
	_, err = DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = nil
	_, err = DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[2]
	_, err = DecompileAdvanceNonce(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestGetNonceValue(t *testing.T) {
	info := solana.AccountInfo{
		Data:  make([]byte, 80),
		Owner: ProgramKey[:],
	}

	var val solana.Blockhash
	for i := 0; i < 32; i++ {
		val[i] = byte(i)
	}
	copy(info.Data[4+4+32:], val[:])

	actual, err := GetNonceValueFromAccount(info)
	assert.NoError(t, err)
	assert.EqualValues(t, val, actual)

	info.Data = info.Data[:79]
	_, err = GetNonceValueFromAccount(info)
	assert.NotNil(t, err)

	info.Data = make([]byte, 80)
	info.Owner = generateKeys(t, 1)[0]
	_, err = GetNonceValueFromAccount(info)
	assert.NotNil(t, err)
}

func TestNonceAccountRoundTrip(t *testing.T) {
	keys := generateKeys(t, 2)

	account := NonceAccount{
		Version:   uint32(NonceVersion1),
		State:     1,
		Authority: keys[0],
		Blockhash: keys[1],
		FeeCalculator: FeeCalculator{
			LamportsPerSignature: 5000,
		},
	}

	marshalled := account.Marshal()
	require.Len(t, marshalled, NonceAccountSize)

	var parsed NonceAccount
	require.NoError(t, parsed.Unmarshal(marshalled))
	assert.Equal(t, account, parsed)

	assert.Equal(t, ErrInvalidAccountSize, parsed.Unmarshal(marshalled[:40]))

	binary.LittleEndian.PutUint32(marshalled, 0)
	assert.Equal(t, ErrInvalidAccountVersion, parsed.Unmarshal(marshalled))
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
