package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"poolScope/internal/model"
)

// tickArraySeed is the PDA seed prefix for TickArray accounts.
const tickArraySeed = "tick_array"

// tickArrayRadius is how many arrays on each side of the current one are
// loaded per TickRange call.
const tickArrayRadius = 3

// whirlpoolProgramID is the mainnet Whirlpool program.
var whirlpoolProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

// Client fetches pool state from a Solana RPC endpoint and normalizes it
// into snapshot models. It implements Source.
type Client struct {
	rpc       *rpc.Client
	programID solana.PublicKey
}

// NewClient creates a client for the given RPC URL.
func NewClient(rpcURL string) *Client {
	return &Client{
		rpc:       rpc.New(rpcURL),
		programID: whirlpoolProgramID,
	}
}

// Close releases the underlying RPC client.
func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// PoolState fetches and decodes the pool account plus its vault balances.
func (c *Client) PoolState(ctx context.Context, pool model.Pool) (model.PoolSnapshot, error) {
	address, err := solana.PublicKeyFromBase58(pool.Address)
	if err != nil {
		return model.PoolSnapshot{}, &FetchError{Kind: KindTransient, Err: fmt.Errorf("parse pool address %q: %w", pool.Address, err)}
	}

	res, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return model.PoolSnapshot{}, classify("get pool account", err)
	}
	if res == nil || res.Value == nil {
		return model.PoolSnapshot{}, &FetchError{Kind: KindTransient, Err: fmt.Errorf("pool account %s not found", pool.Address)}
	}

	acct, err := decodeWhirlpool(res.Value.Data.GetBinary())
	if err != nil {
		return model.PoolSnapshot{}, &FetchError{Kind: KindTransient, Err: err}
	}

	amountA, err := c.vaultAmount(ctx, acct.TokenVaultA)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	amountB, err := c.vaultAmount(ctx, acct.TokenVaultB)
	if err != nil {
		return model.PoolSnapshot{}, err
	}

	return model.PoolSnapshot{
		TakenAt:     time.Now().UTC(),
		PoolAddress: pool.Address,
		Pair:        pool.Pair,
		Liquidity:   decimal.NewFromBigInt(acct.Liquidity.BigInt(), 0),
		SqrtPrice:   decimal.NewFromBigInt(acct.SqrtPrice.BigInt(), 0),
		CurrentTick: acct.TickCurrentIndex,
		Price:       sqrtPriceToPrice(acct.SqrtPrice.BigInt(), pool.DecimalsA, pool.DecimalsB),
		AmountA:     amountA,
		AmountB:     amountB,
		FeeGrowthA:  decimal.NewFromBigInt(acct.FeeGrowthGlobalA.BigInt(), 0),
		FeeGrowthB:  decimal.NewFromBigInt(acct.FeeGrowthGlobalB.BigInt(), 0),
	}, nil
}

// TickRange fetches the tick arrays covering currentTick plus
// tickArrayRadius arrays on each side, and returns the initialized ticks.
func (c *Client) TickRange(ctx context.Context, pool model.Pool, currentTick int32) ([]model.TickSnapshot, error) {
	address, err := solana.PublicKeyFromBase58(pool.Address)
	if err != nil {
		return nil, &FetchError{Kind: KindTransient, Err: fmt.Errorf("parse pool address %q: %w", pool.Address, err)}
	}
	if pool.TickSpacing <= 0 {
		return nil, &FetchError{Kind: KindTransient, Err: fmt.Errorf("pool %s: tick spacing must be positive", pool.Address)}
	}

	span := pool.TickSpacing * ticksPerArray
	center := tickArrayStartIndex(currentTick, pool.TickSpacing)

	keys := make([]solana.PublicKey, 0, 2*tickArrayRadius+1)
	for offset := -tickArrayRadius; offset <= tickArrayRadius; offset++ {
		start := center + int32(offset)*span
		key, err := c.tickArrayAddress(address, start)
		if err != nil {
			return nil, &FetchError{Kind: KindTransient, Err: err}
		}
		keys = append(keys, key)
	}

	res, err := c.rpc.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, classify("get tick arrays", err)
	}
	if res == nil {
		return nil, &FetchError{Kind: KindTransient, Err: fmt.Errorf("pool %s: empty tick array response", pool.Address)}
	}

	takenAt := time.Now().UTC()
	var ticks []model.TickSnapshot
	for _, account := range res.Value {
		if account == nil {
			// Uninitialized array in the requested window.
			continue
		}
		arr, err := decodeTickArray(account.Data.GetBinary())
		if err != nil {
			return nil, &FetchError{Kind: KindTransient, Err: err}
		}
		for i, tick := range arr.Ticks {
			if !tick.Initialized {
				continue
			}
			index := arr.StartTickIndex + int32(i)*pool.TickSpacing
			ticks = append(ticks, model.TickSnapshot{
				TakenAt:           takenAt,
				PoolAddress:       pool.Address,
				TickIndex:         index,
				Price:             tickIndexToPrice(index, pool.DecimalsA, pool.DecimalsB),
				LiquidityNet:      decimal.NewFromBigInt(tick.LiquidityNet.BigInt(), 0),
				LiquidityGross:    decimal.NewFromBigInt(tick.LiquidityGross.BigInt(), 0),
				FeeGrowthOutsideA: decimal.NewFromBigInt(tick.FeeGrowthOutsideA.BigInt(), 0),
				FeeGrowthOutsideB: decimal.NewFromBigInt(tick.FeeGrowthOutsideB.BigInt(), 0),
			})
		}
	}

	return ticks, nil
}

func (c *Client) vaultAmount(ctx context.Context, vault solana.PublicKey) (decimal.Decimal, error) {
	res, err := c.rpc.GetTokenAccountBalance(ctx, vault, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, classify("get vault balance", err)
	}
	if res == nil || res.Value == nil {
		return decimal.Zero, &FetchError{Kind: KindTransient, Err: fmt.Errorf("vault %s: empty balance response", vault)}
	}

	raw, err := decimal.NewFromString(res.Value.Amount)
	if err != nil {
		return decimal.Zero, &FetchError{Kind: KindTransient, Err: fmt.Errorf("vault %s: parse amount %q: %w", vault, res.Value.Amount, err)}
	}
	return raw.Shift(-int32(res.Value.Decimals)), nil
}

func (c *Client) tickArrayAddress(pool solana.PublicKey, startIndex int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(tickArraySeed),
		pool.Bytes(),
		[]byte(strconv.FormatInt(int64(startIndex), 10)),
	}
	key, _, err := solana.FindProgramAddress(seeds, c.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive tick array pda (start %d): %w", startIndex, err)
	}
	return key, nil
}
