package source

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ticksPerArray is the fixed tick count of a Whirlpool TickArray account.
const ticksPerArray = 88

// accountDiscriminatorLen is the Anchor account discriminator prefix.
const accountDiscriminatorLen = 8

// whirlpoolAccount is the leading portion of the on-chain Whirlpool account
// layout, through the fields the collector consumes. Reward state after
// fee_growth_global_b is not decoded.
type whirlpoolAccount struct {
	WhirlpoolsConfig solana.PublicKey
	WhirlpoolBump    [1]uint8
	TickSpacing      uint16
	TickSpacingSeed  [2]uint8
	FeeRate          uint16
	ProtocolFeeRate  uint16
	Liquidity        bin.Uint128
	SqrtPrice        bin.Uint128
	TickCurrentIndex int32
	ProtocolFeeOwedA uint64
	ProtocolFeeOwedB uint64
	TokenMintA       solana.PublicKey
	TokenVaultA      solana.PublicKey
	FeeGrowthGlobalA bin.Uint128
	TokenMintB       solana.PublicKey
	TokenVaultB      solana.PublicKey
	FeeGrowthGlobalB bin.Uint128
}

// tickData is the per-tick layout inside a TickArray account.
type tickData struct {
	Initialized          bool
	LiquidityNet         bin.Int128
	LiquidityGross       bin.Uint128
	FeeGrowthOutsideA    bin.Uint128
	FeeGrowthOutsideB    bin.Uint128
	RewardGrowthsOutside [3]bin.Uint128
}

// tickArrayAccount is the on-chain TickArray account layout.
type tickArrayAccount struct {
	StartTickIndex int32
	Ticks          [ticksPerArray]tickData
	Whirlpool      solana.PublicKey
}

func decodeWhirlpool(data []byte) (whirlpoolAccount, error) {
	if len(data) <= accountDiscriminatorLen {
		return whirlpoolAccount{}, fmt.Errorf("whirlpool account too short: %d bytes", len(data))
	}
	var acct whirlpoolAccount
	if err := bin.NewBorshDecoder(data[accountDiscriminatorLen:]).Decode(&acct); err != nil {
		return whirlpoolAccount{}, fmt.Errorf("decode whirlpool account: %w", err)
	}
	return acct, nil
}

func decodeTickArray(data []byte) (tickArrayAccount, error) {
	if len(data) <= accountDiscriminatorLen {
		return tickArrayAccount{}, fmt.Errorf("tick array account too short: %d bytes", len(data))
	}
	var acct tickArrayAccount
	if err := bin.NewBorshDecoder(data[accountDiscriminatorLen:]).Decode(&acct); err != nil {
		return tickArrayAccount{}, fmt.Errorf("decode tick array account: %w", err)
	}
	return acct, nil
}

// tickArrayStartIndex returns the start index of the array containing tick,
// flooring toward negative infinity.
func tickArrayStartIndex(tick, tickSpacing int32) int32 {
	span := tickSpacing * ticksPerArray
	start := tick / span
	if tick < 0 && tick%span != 0 {
		start--
	}
	return start * span
}
