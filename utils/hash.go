package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// HashTag 标签哈希：sha256(UTF-8 tag)
//
// 分类标签、反馈标签与验证标签都以该形式上链。
func HashTag(tag string) [32]byte {
	return sha256.Sum256([]byte(tag))
}

// HashTags 批量哈希标签，保持顺序
func HashTags(tags []string) [][32]byte {
	out := make([][32]byte, len(tags))
	for i, t := range tags {
		out[i] = HashTag(t)
	}
	return out
}

// HashBytes 任意字节的 sha256
func HashBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// StringToBytes32 字符串转 32 字节（超出截断，不足补零）
func StringToBytes32(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}

// RandomPaymentID 生成随机 32 字节支付 ID
func RandomPaymentID() ([32]byte, error) {
	var id [32]byte
	if _, err := rand.Read(id[:]); err != nil {
		return id, fmt.Errorf("generate payment id: %w", err)
	}
	return id, nil
}

// RandomSignature 生成随机 64 字节签名占位
func RandomSignature() ([64]byte, error) {
	var sig [64]byte
	if _, err := rand.Read(sig[:]); err != nil {
		return sig, fmt.Errorf("generate signature placeholder: %w", err)
	}
	return sig, nil
}
