package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keystoreVersion = 1
	pbkdf2Rounds    = 262144
	derivedKeyLen   = 32
)

// Keystore Keystore文件结构
type Keystore struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto 加密信息
type Crypto struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams 加密参数
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams PBKDF2 参数
type KDFParams struct {
	C     int    `json:"c"`
	DKLen int    `json:"dklen"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// KeystoreManager Keystore管理器（口令加密保存密钥对）
type KeystoreManager struct {
	keystoreDir string
}

// NewKeystoreManager 创建Keystore管理器
func NewKeystoreManager(keystoreDir string) (*KeystoreManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &KeystoreManager{keystoreDir: keystoreDir}, nil
}

// Save 加密保存密钥对，返回文件路径（<地址>.json）
func (km *KeystoreManager) Save(kp *Keypair, password string) (string, error) {
	// 1. 生成随机salt和IV
	salt := make([]byte, 32)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	// 2. 派生密钥：前 16 字节加密，后 16 字节计算 MAC
	dk := deriveKey(password, salt, pbkdf2Rounds)

	// 3. 加密私钥
	ciphertext, err := xorAESCTR(dk[:16], kp.SecretKey(), iv)
	if err != nil {
		return "", fmt.Errorf("encrypt secret key: %w", err)
	}

	address := kp.PublicKey().String()
	ks := &Keystore{
		Version: keystoreVersion,
		ID:      uuid.NewString(),
		Address: address,
		Crypto: Crypto{
			Cipher:       "aes-128-ctr",
			CipherText:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			KDF:          "pbkdf2",
			KDFParams: KDFParams{
				C:     pbkdf2Rounds,
				DKLen: derivedKeyLen,
				PRF:   "hmac-sha256",
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(computeMAC(dk[16:], ciphertext)),
		},
	}

	// 4. 保存到文件
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode keystore: %w", err)
	}
	keystorePath := filepath.Join(km.keystoreDir, address+".json")
	if err := os.WriteFile(keystorePath, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore file: %w", err)
	}
	return keystorePath, nil
}

// Load 按地址加载并解密密钥对
func (km *KeystoreManager) Load(address string, password string) (*Keypair, error) {
	// 1. 读取并解析Keystore
	data, err := os.ReadFile(filepath.Join(km.keystoreDir, address+".json"))
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if ks.Crypto.KDF != "pbkdf2" || ks.Crypto.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("unsupported keystore crypto: %s/%s", ks.Crypto.KDF, ks.Crypto.Cipher)
	}

	// 2. 提取参数
	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}

	// 3. 验证MAC
	dk := deriveKey(password, salt, ks.Crypto.KDFParams.C)
	if !hmac.Equal(computeMAC(dk[16:], ciphertext), mac) {
		return nil, fmt.Errorf("invalid password")
	}

	// 4. 解密私钥
	secret, err := xorAESCTR(dk[:16], ciphertext, iv)
	if err != nil {
		return nil, fmt.Errorf("decrypt secret key: %w", err)
	}
	kp, err := KeypairFromSecretKey(secret)
	if err != nil {
		return nil, err
	}
	if kp.PublicKey().String() != ks.Address {
		return nil, fmt.Errorf("keystore address mismatch: file %s, key %s", ks.Address, kp.PublicKey())
	}
	return kp, nil
}

// LoadKeypairFile 读取 Solana CLI 格式的密钥文件（64 个整数组成的 JSON 数组）
func LoadKeypairFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair file: %w", err)
	}
	secret := make([]byte, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair file byte %d out of range: %d", i, v)
		}
		secret[i] = byte(v)
	}
	return KeypairFromSecretKey(secret)
}

// SaveKeypairFile 以 Solana CLI 格式写入密钥文件
func SaveKeypairFile(path string, kp *Keypair) error {
	secret := kp.SecretKey()
	raw := make([]int, len(secret))
	for i, b := range secret {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write keypair file: %w", err)
	}
	return nil
}

// deriveKey 派生密钥（PBKDF2-HMAC-SHA256）
func deriveKey(password string, salt []byte, rounds int) []byte {
	if rounds <= 0 {
		rounds = pbkdf2Rounds
	}
	return pbkdf2.Key([]byte(password), salt, rounds, derivedKeyLen, sha256.New)
}

// xorAESCTR AES-CTR 加解密（对称）
func xorAESCTR(key, input, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("invalid iv length: %d", len(iv))
	}
	out := make([]byte, len(input))
	cipher.NewCTR(block, iv).XORKeyStream(out, input)
	return out, nil
}

// computeMAC 计算MAC
func computeMAC(key, ciphertext []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(ciphertext)
	return m.Sum(nil)
}
