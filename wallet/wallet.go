package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/x84-ai/client-sdk-go/types"
)

// Signer 签名者接口
//
// SDK 不签交易，只在需要链下签名的地方（反馈授权）使用。
type Signer interface {
	// PublicKey 签名者地址
	PublicKey() types.PublicKey

	// SignMessage 对消息做 ed25519 签名
	SignMessage(msg []byte) ([64]byte, error)
}

// Keypair ed25519 密钥对
//
// 用于资产/集合等需要新地址的账户，以及反馈授权签名。
type Keypair struct {
	private ed25519.PrivateKey
	public  types.PublicKey
}

// NewKeypair 生成随机密钥对
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return fromPrivate(priv), nil
}

// KeypairFromSeed 由 32 字节种子构造
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromSecretKey 由 64 字节私钥（种子 ‖ 公钥）构造并校验公钥一致
func KeypairFromSecretKey(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid secret key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}
	kp := fromPrivate(ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize]))
	if string(kp.public[:]) != string(secret[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("secret key public half does not match its seed")
	}
	return kp, nil
}

// KeypairFromBase58 解析 Base58 编码的 64 字节私钥（钱包导出格式）
func KeypairFromBase58(s string) (*Keypair, error) {
	decoded := base58.Decode(s)
	if len(decoded) == 0 {
		return nil, fmt.Errorf("invalid base58 secret key")
	}
	return KeypairFromSecretKey(decoded)
}

func fromPrivate(priv ed25519.PrivateKey) *Keypair {
	var pub types.PublicKey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{private: priv, public: pub}
}

// PublicKey 公钥地址
func (k *Keypair) PublicKey() types.PublicKey {
	return k.public
}

// SecretKey 64 字节私钥副本（谨慎使用）
func (k *Keypair) SecretKey() []byte {
	out := make([]byte, len(k.private))
	copy(out, k.private)
	return out
}

// SignMessage 对消息签名
func (k *Keypair) SignMessage(msg []byte) ([64]byte, error) {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(k.private, msg))
	return sig, nil
}

// Verify 校验 ed25519 签名
func Verify(pub types.PublicKey, msg []byte, sig [64]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}
