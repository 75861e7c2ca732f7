package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

const maxBPS = 10_000

// field returns out[i] asserted to T.
func field[T any](out []interface{}, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("missing output %d of %d", i, len(out))
	}
	v, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("output %d: unexpected type %T", i, out[i])
	}
	return v, nil
}

// bigs returns the first n outputs as non-nil integers.
func bigs(out []interface{}, n int) ([]*big.Int, error) {
	vals := make([]*big.Int, n)
	for i := range vals {
		v, err := field[*big.Int](out, i)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("output %d: nil integer", i)
		}
		vals[i] = v
	}
	return vals, nil
}

// convertTuples converts the anonymous struct slice abi produces for a tuple[]
// output into []T.
func convertTuples[T any](out []interface{}) (res []T, err error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("missing tuple output")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("convert tuple: %v", r)
		}
	}()
	converted, ok := abi.ConvertType(out[0], new([]T)).(*[]T)
	if !ok {
		return nil, fmt.Errorf("convert tuple: unexpected type %T", out[0])
	}
	return *converted, nil
}

func uint64At(out []interface{}, i int) (uint64, error) {
	v, err := field[*big.Int](out, i)
	if err != nil {
		return 0, err
	}
	if v == nil || !v.IsUint64() {
		return 0, fmt.Errorf("output %d: %v out of range", i, v)
	}
	return v.Uint64(), nil
}

func decodeReserveConfig(out []interface{}) (domain.ReserveConfig, error) {
	var nums [5]uint64
	for i := range nums {
		n, err := uint64At(out, i)
		if err != nil {
			return domain.ReserveConfig{}, err
		}
		nums[i] = n
	}
	var flags [5]bool
	for i := range flags {
		b, err := field[bool](out, 5+i)
		if err != nil {
			return domain.ReserveConfig{}, err
		}
		flags[i] = b
	}
	cfg := domain.ReserveConfig{
		Decimals:                 nums[0],
		LTV:                      nums[1],
		LiquidationThreshold:     nums[2],
		LiquidationBonus:         nums[3],
		ReserveFactor:            nums[4],
		UsageAsCollateralEnabled: flags[0],
		BorrowingEnabled:         flags[1],
		StableBorrowRateEnabled:  flags[2],
		IsActive:                 flags[3],
		IsFrozen:                 flags[4],
	}
	switch {
	case cfg.Decimals > 255:
		return domain.ReserveConfig{}, fmt.Errorf("decimals %d out of range", cfg.Decimals)
	case cfg.LTV > maxBPS:
		return domain.ReserveConfig{}, fmt.Errorf("ltv %d exceeds %d bps", cfg.LTV, maxBPS)
	case cfg.LiquidationThreshold > maxBPS:
		return domain.ReserveConfig{}, fmt.Errorf("liquidation threshold %d exceeds %d bps", cfg.LiquidationThreshold, maxBPS)
	}
	return cfg, nil
}

func decodeUserReserve(out []interface{}) (domain.UserReserve, error) {
	vals, err := bigs(out, 8)
	if err != nil {
		return domain.UserReserve{}, err
	}
	if !vals[7].IsUint64() {
		return domain.UserReserve{}, fmt.Errorf("stableRateLastUpdated %v out of range", vals[7])
	}
	enabled, err := field[bool](out, 8)
	if err != nil {
		return domain.UserReserve{}, err
	}
	return domain.UserReserve{
		CurrentATokenBalance:     vals[0],
		CurrentStableDebt:        vals[1],
		CurrentVariableDebt:      vals[2],
		PrincipalStableDebt:      vals[3],
		ScaledVariableDebt:       vals[4],
		StableBorrowRate:         vals[5],
		LiquidityRate:            vals[6],
		StableRateLastUpdated:    vals[7].Uint64(),
		UsageAsCollateralEnabled: enabled,
	}, nil
}

func decodeReserveData(out []interface{}) (domain.ReserveData, error) {
	vals, err := bigs(out, 12)
	if err != nil {
		return domain.ReserveData{}, err
	}
	if !vals[11].IsUint64() {
		return domain.ReserveData{}, fmt.Errorf("lastUpdateTimestamp %v out of range", vals[11])
	}
	return domain.ReserveData{
		Unbacked:                vals[0],
		AccruedToTreasuryScaled: vals[1],
		TotalAToken:             vals[2],
		TotalStableDebt:         vals[3],
		TotalVariableDebt:       vals[4],
		LiquidityRate:           vals[5],
		VariableBorrowRate:      vals[6],
		StableBorrowRate:        vals[7],
		AverageStableBorrowRate: vals[8],
		LiquidityIndex:          vals[9],
		VariableBorrowIndex:     vals[10],
		LastUpdateTimestamp:     vals[11].Uint64(),
	}, nil
}
