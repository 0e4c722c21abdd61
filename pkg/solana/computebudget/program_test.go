package computebudget

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
)

func TestSetComputeUnitLimit(t *testing.T) {
	instruction := SetComputeUnitLimit(200000)

	assert.Equal(t, ProgramKey, instruction.Program)
	assert.Empty(t, instruction.Accounts)

	require.Len(t, instruction.Data, 5)
	assert.EqualValues(t, 2, instruction.Data[0])
	assert.EqualValues(t, 200000, binary.LittleEndian.Uint32(instruction.Data[1:]))

	tx := solana.NewTransaction(make([]byte, 32), instruction)

	decompiled, err := DecompileSetComputeUnitLimit(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 200000, decompiled.Limit)
}

func TestSetComputeUnitPrice(t *testing.T) {
	instruction := SetComputeUnitPrice(10000)

	assert.Equal(t, ProgramKey, instruction.Program)
	assert.Empty(t, instruction.Accounts)

	require.Len(t, instruction.Data, 9)
	assert.EqualValues(t, 3, instruction.Data[0])
	assert.EqualValues(t, 10000, binary.LittleEndian.Uint64(instruction.Data[1:]))

	tx := solana.NewTransaction(make([]byte, 32), instruction)

	decompiled, err := DecompileSetComputeUnitPrice(tx.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, decompiled.MicroLamports)
}

func TestDecompileInvalid(t *testing.T) {
	tx := solana.NewTransaction(
		make([]byte, 32),
		SetComputeUnitLimit(1400000),
		SetComputeUnitPrice(1),
	)

	_, err := DecompileSetComputeUnitLimit(tx.Message, 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	// The two variants share a program, so probing the wrong index
	// trips on the command byte.
	_, err = DecompileSetComputeUnitLimit(tx.Message, 1)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	_, err = DecompileSetComputeUnitPrice(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	truncated := solana.NewTransaction(make([]byte, 32), SetComputeUnitLimit(0))
	truncated.Message.Instructions[0].Data = truncated.Message.Instructions[0].Data[:3]
	_, err = DecompileSetComputeUnitLimit(truncated.Message, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instruction data size")

	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	tx.Message.Accounts[1] = program
	_, err = DecompileSetComputeUnitLimit(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
