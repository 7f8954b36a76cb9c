package storage

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

func TestCurveCodec(t *testing.T) {
	c := &curve.BondingCurve{
		Mint:                        solana.NewWallet().PublicKey(),
		Creator:                     solana.NewWallet().PublicKey(),
		Team:                        curve.TeamRed,
		VirtualSolReserves:          30_000_027_960,
		VirtualTokenReserves:        1_072_999_000_000_000,
		RealSolReserves:             27_960,
		RealTokenReserves:           793_099_000_000_000,
		TokenTotalSupply:            curve.DefaultInitialTokenSupply,
		Name:                        "Token",
		Symbol:                      "",
		URI:                         "",
		InitialVirtualTokenReserves: curve.DefaultInitialVirtualTokenReserves,
		InitialRealTokenReserves:    curve.DefaultInitialRealTokenReserves,
		CreatedAt:                   1_700_000_000,
	}

	data, err := EncodeCurve(c)
	require.NoError(t, err)
	assert.Equal(t, curveDiscriminator, data[:8])

	got, err := DecodeCurve(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestGlobalCodec(t *testing.T) {
	g := curve.NewGlobalConfig(solana.NewWallet().PublicKey(), curve.DefaultParams())

	data, err := EncodeGlobal(g)
	require.NoError(t, err)
	got, err := DecodeGlobal(data)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestDecodeRejectsWrongRecord(t *testing.T) {
	data, err := EncodeTransferData(&curve.UserTransferData{LastTransferTimestamp: 42})
	require.NoError(t, err)

	d, err := DecodeTransferData(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.LastTransferTimestamp)

	_, err = DecodeCurve(data)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	_, err = DecodeGlobal([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorruptRecord)

	_, err = DecodeTransferData(transferDataDiscriminator)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
