// Package pda 推导程序派生地址（PDA）
//
// 算法与账本运行时一致：
// address = sha256(seed_0 ‖ … ‖ seed_n ‖ bump ‖ programID ‖ "ProgramDerivedAddress")，
// bump 从 255 递减，取第一个不在 ed25519 曲线上的结果。
package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/x84-ai/client-sdk-go/types"
)

const (
	// MaxSeedLength 单个种子最大字节数
	MaxSeedLength = 32
	// MaxSeeds 种子数量上限（含 bump）
	MaxSeeds = 16
)

const pdaMarker = "ProgramDerivedAddress"

var (
	// ErrMaxSeedLengthExceeded 种子超长
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	// ErrTooManySeeds 种子过多
	ErrTooManySeeds = errors.New("too many seeds")
	// ErrOnCurve 结果落在曲线上（不是合法 PDA）
	ErrOnCurve = errors.New("invalid seeds: address must fall off the curve")
	// ErrNoViableBump 所有 bump 都落在曲线上
	ErrNoViableBump = errors.New("unable to find a viable program address bump")
)

// CreateProgramAddress 以完整种子（已含 bump）计算地址
func CreateProgramAddress(seeds [][]byte, programID types.PublicKey) (types.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return types.PublicKey{}, fmt.Errorf("%w: %d > %d", ErrTooManySeeds, len(seeds), MaxSeeds)
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return types.PublicKey{}, fmt.Errorf("%w: seed %d has %d bytes", ErrMaxSeedLengthExceeded, i, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out types.PublicKey
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out[:]) {
		return types.PublicKey{}, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress 搜索 bump 并返回地址与 bump
func FindProgramAddress(seeds [][]byte, programID types.PublicKey) (types.PublicKey, uint8, error) {
	// bump 本身占一个种子位
	if len(seeds) > MaxSeeds-1 {
		return types.PublicKey{}, 0, fmt.Errorf("%w: %d seeds plus bump > %d", ErrTooManySeeds, len(seeds), MaxSeeds)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return types.PublicKey{}, 0, fmt.Errorf("%w: seed %d has %d bytes", ErrMaxSeedLengthExceeded, i, len(seed))
		}
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return types.PublicKey{}, 0, err
		}
	}
	return types.PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve 判断 32 字节是否为合法的 ed25519 压缩点
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
