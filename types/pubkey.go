package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// PublicKeyLength 公钥长度（字节）
const PublicKeyLength = 32

// PublicKey 32 字节账户地址（ed25519 公钥或 PDA）
//
// 文本形式为 Base58（比特币字母表），与账本 RPC 与后端 API 一致。
type PublicKey [PublicKeyLength]byte

// 常用程序地址
var (
	// ProgramID x84 协议程序
	ProgramID = MustPublicKey("X84XHMKT7xvjgVUXFNQLZLSdCEEZu2wAPrAeP4M9Hhi")
	// MplCoreProgramID Metaplex Core 资产发行程序
	MplCoreProgramID = MustPublicKey("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")
	// SystemProgramID 系统程序
	SystemProgramID = MustPublicKey("11111111111111111111111111111111")
	// SysvarInstructionsID 指令 sysvar（用于读取同交易中的 Ed25519 验签指令）
	SysvarInstructionsID = MustPublicKey("Sysvar1nstructions1111111111111111111111111")
	// Ed25519ProgramID 原生 Ed25519 验签程序
	Ed25519ProgramID = MustPublicKey("Ed25519SigVerify111111111111111111111111111")
	// TokenProgramID SPL Token 程序
	TokenProgramID = MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	// Token2022ProgramID SPL Token-2022 程序
	Token2022ProgramID = MustPublicKey("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// PublicKeyFromBase58 解析 Base58 地址
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	if s == "" {
		return pk, fmt.Errorf("empty public key")
	}
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return pk, fmt.Errorf("invalid base58 public key: %s", s)
	}
	if len(decoded) != PublicKeyLength {
		return pk, fmt.Errorf("invalid public key length: expected %d bytes, got %d", PublicKeyLength, len(decoded))
	}
	copy(pk[:], decoded)
	return pk, nil
}

// PublicKeyFromBytes 从字节切片构造公钥
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("invalid public key length: expected %d bytes, got %d", PublicKeyLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPublicKey 解析 Base58 地址，失败时 panic（仅用于常量）
func MustPublicKey(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String 返回 Base58 文本
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Bytes 返回字节副本
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLength)
	copy(out, pk[:])
	return out
}

// IsZero 是否为全零地址
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// Equals 比较两个地址
func (pk PublicKey) Equals(other PublicKey) bool {
	return bytes.Equal(pk[:], other[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := PublicKeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// MarshalJSON 序列化为 Base58 字符串
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON 从 Base58 字符串反序列化
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("public key must be a base58 string: %w", err)
	}
	return pk.UnmarshalText([]byte(s))
}
