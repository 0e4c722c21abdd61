package computebudget

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/solana-stake-sdk/pkg/solana"
)

// ProgramKey is the address of the compute budget program.
//
// Base58: ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

// Reference: https://github.com/solana-labs/solana/blob/master/sdk/src/compute_budget.rs
func SetComputeUnitLimit(limit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], limit)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per
// compute unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

type DecompiledSetComputeUnitLimit struct {
	Limit uint32
}

func DecompileSetComputeUnitLimit(m solana.Message, index int) (*DecompiledSetComputeUnitLimit, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{commandSetComputeUnitLimit}) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Data) != 1+4 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledSetComputeUnitLimit{
		Limit: binary.LittleEndian.Uint32(i.Data[1:]),
	}, nil
}

type DecompiledSetComputeUnitPrice struct {
	MicroLamports uint64
}

func DecompileSetComputeUnitPrice(m solana.Message, index int) (*DecompiledSetComputeUnitPrice, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, []byte{commandSetComputeUnitPrice}) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Data) != 1+8 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledSetComputeUnitPrice{
		MicroLamports: binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}
