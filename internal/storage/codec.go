package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
)

// Records are stored as an 8 byte discriminator followed by the borsh encoded
// body, the same layout Anchor uses for program accounts.

const discriminatorSize = 8

var (
	globalDiscriminator       = accountDiscriminator("Global")
	curveDiscriminator        = accountDiscriminator("BondingCurve")
	transferDataDiscriminator = accountDiscriminator("UserTransferData")
)

func accountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:discriminatorSize]
}

type globalRecord struct {
	Initialized                 bool
	Authority                   solana.PublicKey
	FeeRecipient                solana.PublicKey
	WithdrawAuthority           solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	InitialTokenSupply          uint64
	FeeBasisPoints              uint64
}

// Strings sit before the trailing integers: borsh-go cannot decode an empty
// string as the last field of a buffer.
type curveRecord struct {
	Mint                        solana.PublicKey
	Creator                     solana.PublicKey
	Team                        uint8
	VirtualSolReserves          uint64
	VirtualTokenReserves        uint64
	RealSolReserves             uint64
	RealTokenReserves           uint64
	TokenTotalSupply            uint64
	Complete                    bool
	Name                        string
	Symbol                      string
	URI                         string
	InitialVirtualTokenReserves uint64
	InitialRealTokenReserves    uint64
	CreatedAt                   int64
}

type transferDataRecord struct {
	LastTransferTimestamp int64
}

func encode(disc []byte, v interface{}) ([]byte, error) {
	body, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("borsh serialize: %w", err)
	}
	out := make([]byte, 0, len(disc)+len(body))
	out = append(out, disc...)
	return append(out, body...), nil
}

func decode(disc, data []byte, v interface{}) error {
	if len(data) < discriminatorSize || !bytes.Equal(data[:discriminatorSize], disc) {
		return fmt.Errorf("%w: bad discriminator", ErrCorruptRecord)
	}
	if err := borsh.Deserialize(v, data[discriminatorSize:]); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return nil
}

// EncodeGlobal serializes a GlobalConfig.
func EncodeGlobal(g *curve.GlobalConfig) ([]byte, error) {
	return encode(globalDiscriminator, globalRecord{
		Initialized:                 g.Initialized,
		Authority:                   g.Authority,
		FeeRecipient:                g.FeeRecipient,
		WithdrawAuthority:           g.WithdrawAuthority,
		InitialVirtualTokenReserves: g.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   g.InitialVirtualSolReserves,
		InitialRealTokenReserves:    g.InitialRealTokenReserves,
		InitialTokenSupply:          g.InitialTokenSupply,
		FeeBasisPoints:              g.FeeBasisPoints,
	})
}

// DecodeGlobal is the inverse of EncodeGlobal.
func DecodeGlobal(data []byte) (*curve.GlobalConfig, error) {
	var r globalRecord
	if err := decode(globalDiscriminator, data, &r); err != nil {
		return nil, err
	}
	return &curve.GlobalConfig{
		Initialized:                 r.Initialized,
		Authority:                   r.Authority,
		FeeRecipient:                r.FeeRecipient,
		WithdrawAuthority:           r.WithdrawAuthority,
		InitialVirtualTokenReserves: r.InitialVirtualTokenReserves,
		InitialVirtualSolReserves:   r.InitialVirtualSolReserves,
		InitialRealTokenReserves:    r.InitialRealTokenReserves,
		InitialTokenSupply:          r.InitialTokenSupply,
		FeeBasisPoints:              r.FeeBasisPoints,
	}, nil
}

// EncodeCurve serializes a BondingCurve.
func EncodeCurve(c *curve.BondingCurve) ([]byte, error) {
	return encode(curveDiscriminator, curveRecord{
		Mint:                        c.Mint,
		Creator:                     c.Creator,
		Team:                        uint8(c.Team),
		VirtualSolReserves:          c.VirtualSolReserves,
		VirtualTokenReserves:        c.VirtualTokenReserves,
		RealSolReserves:             c.RealSolReserves,
		RealTokenReserves:           c.RealTokenReserves,
		TokenTotalSupply:            c.TokenTotalSupply,
		Complete:                    c.Complete,
		Name:                        c.Name,
		Symbol:                      c.Symbol,
		URI:                         c.URI,
		InitialVirtualTokenReserves: c.InitialVirtualTokenReserves,
		InitialRealTokenReserves:    c.InitialRealTokenReserves,
		CreatedAt:                   c.CreatedAt,
	})
}

// DecodeCurve is the inverse of EncodeCurve.
func DecodeCurve(data []byte) (*curve.BondingCurve, error) {
	var r curveRecord
	if err := decode(curveDiscriminator, data, &r); err != nil {
		return nil, err
	}
	return &curve.BondingCurve{
		Mint:                        r.Mint,
		Creator:                     r.Creator,
		Team:                        curve.Team(r.Team),
		VirtualSolReserves:          r.VirtualSolReserves,
		VirtualTokenReserves:        r.VirtualTokenReserves,
		RealSolReserves:             r.RealSolReserves,
		RealTokenReserves:           r.RealTokenReserves,
		TokenTotalSupply:            r.TokenTotalSupply,
		Complete:                    r.Complete,
		Name:                        r.Name,
		Symbol:                      r.Symbol,
		URI:                         r.URI,
		InitialVirtualTokenReserves: r.InitialVirtualTokenReserves,
		InitialRealTokenReserves:    r.InitialRealTokenReserves,
		CreatedAt:                   r.CreatedAt,
	}, nil
}

// EncodeTransferData serializes a UserTransferData.
func EncodeTransferData(d *curve.UserTransferData) ([]byte, error) {
	return encode(transferDataDiscriminator, transferDataRecord{LastTransferTimestamp: d.LastTransferTimestamp})
}

// DecodeTransferData is the inverse of EncodeTransferData.
func DecodeTransferData(data []byte) (*curve.UserTransferData, error) {
	var r transferDataRecord
	if err := decode(transferDataDiscriminator, data, &r); err != nil {
		return nil, err
	}
	return &curve.UserTransferData{LastTransferTimestamp: r.LastTransferTimestamp}, nil
}
