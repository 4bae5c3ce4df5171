package source

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"
)

func writeUint128(buf *bytes.Buffer, lo, hi uint64) {
	binary.Write(buf, binary.LittleEndian, lo)
	binary.Write(buf, binary.LittleEndian, hi)
}

func buildWhirlpoolData() []byte {
	buf := &bytes.Buffer{}
	buf.Write(make([]byte, accountDiscriminatorLen))

	buf.Write(make([]byte, 32)) // whirlpools_config
	buf.WriteByte(0xFF)         // bump
	binary.Write(buf, binary.LittleEndian, uint16(64)) // tick_spacing
	buf.Write([]byte{64, 0})                           // tick_spacing_seed
	binary.Write(buf, binary.LittleEndian, uint16(3000)) // fee_rate
	binary.Write(buf, binary.LittleEndian, uint16(300))  // protocol_fee_rate
	writeUint128(buf, 123456789, 0)                      // liquidity
	writeUint128(buf, 0, 1)                              // sqrt_price = 2^64
	binary.Write(buf, binary.LittleEndian, int32(-12345)) // tick_current_index
	binary.Write(buf, binary.LittleEndian, uint64(11))    // protocol_fee_owed_a
	binary.Write(buf, binary.LittleEndian, uint64(22))    // protocol_fee_owed_b
	buf.Write(make([]byte, 32))                           // token_mint_a
	buf.Write(make([]byte, 32))                           // token_vault_a
	writeUint128(buf, 7, 0)                               // fee_growth_global_a
	buf.Write(make([]byte, 32))                           // token_mint_b
	buf.Write(make([]byte, 32))                           // token_vault_b
	writeUint128(buf, 9, 0)                               // fee_growth_global_b

	return buf.Bytes()
}

func TestDecodeWhirlpool(t *testing.T) {
	acct, err := decodeWhirlpool(buildWhirlpoolData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acct.TickSpacing != 64 {
		t.Fatalf("tick spacing = %d, want 64", acct.TickSpacing)
	}
	if acct.TickCurrentIndex != -12345 {
		t.Fatalf("current tick = %d, want -12345", acct.TickCurrentIndex)
	}
	if acct.Liquidity.BigInt().Cmp(big.NewInt(123456789)) != 0 {
		t.Fatalf("liquidity = %s, want 123456789", acct.Liquidity.BigInt())
	}

	wantSqrt := new(big.Int).Lsh(big.NewInt(1), 64)
	if acct.SqrtPrice.BigInt().Cmp(wantSqrt) != 0 {
		t.Fatalf("sqrt price = %s, want 2^64", acct.SqrtPrice.BigInt())
	}
	if acct.FeeGrowthGlobalA.BigInt().Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("fee growth a = %s, want 7", acct.FeeGrowthGlobalA.BigInt())
	}
	if acct.FeeGrowthGlobalB.BigInt().Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("fee growth b = %s, want 9", acct.FeeGrowthGlobalB.BigInt())
	}
}

func TestDecodeWhirlpoolTooShort(t *testing.T) {
	if _, err := decodeWhirlpool(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for short account data")
	}
}

func TestDecodeTickArray(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write(make([]byte, accountDiscriminatorLen))
	binary.Write(buf, binary.LittleEndian, int32(-5632)) // start_tick_index

	for i := 0; i < ticksPerArray; i++ {
		if i == 3 {
			buf.WriteByte(1) // initialized
			// liquidity_net = -5, two's complement over 16 bytes
			writeUint128(buf, ^uint64(4), ^uint64(0))
			writeUint128(buf, 500, 0) // liquidity_gross
		} else {
			buf.WriteByte(0)
			writeUint128(buf, 0, 0)
			writeUint128(buf, 0, 0)
		}
		writeUint128(buf, 0, 0) // fee_growth_outside_a
		writeUint128(buf, 0, 0) // fee_growth_outside_b
		for r := 0; r < 3; r++ {
			writeUint128(buf, 0, 0) // reward_growths_outside
		}
	}
	buf.Write(make([]byte, 32)) // whirlpool

	arr, err := decodeTickArray(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if arr.StartTickIndex != -5632 {
		t.Fatalf("start index = %d, want -5632", arr.StartTickIndex)
	}
	for i, tick := range arr.Ticks {
		if (i == 3) != tick.Initialized {
			t.Fatalf("tick %d initialized = %v", i, tick.Initialized)
		}
	}
	if got := arr.Ticks[3].LiquidityNet.BigInt(); got.Cmp(big.NewInt(-5)) != 0 {
		t.Fatalf("liquidity net = %s, want -5", got)
	}
	if got := arr.Ticks[3].LiquidityGross.BigInt(); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("liquidity gross = %s, want 500", got)
	}
}

func TestTickArrayStartIndex(t *testing.T) {
	cases := []struct {
		tick    int32
		spacing int32
		want    int32
	}{
		{0, 64, 0},
		{5631, 64, 0},
		{5632, 64, 5632},
		{-1, 64, -5632},
		{-5632, 64, -5632},
		{-5633, 64, -11264},
		{100, 1, 88},
	}
	for _, c := range cases {
		if got := tickArrayStartIndex(c.tick, c.spacing); got != c.want {
			t.Fatalf("tickArrayStartIndex(%d, %d) = %d, want %d", c.tick, c.spacing, got, c.want)
		}
	}
}
