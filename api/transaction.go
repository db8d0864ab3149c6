package api

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/x84-ai/client-sdk-go/types"
)

// ErrMalformedTransaction 交易字节无法解析
var ErrMalformedTransaction = errors.New("malformed transaction")

// DecodedTransaction 已序列化交易的只读视图
type DecodedTransaction struct {
	// Version 版本化消息的版本号；nil 表示 legacy 消息
	Version *uint8
	// Signatures 签名槽，未签名的槽为全零
	Signatures [][64]byte
	// NumRequiredSignatures 消息头中的签名者数量
	NumRequiredSignatures uint8
	AccountKeys           []types.PublicKey
	RecentBlockhash       string
	// Message 签名所覆盖的消息字节
	Message []byte
}

// Signers 需要签名的账户（AccountKeys 的前 NumRequiredSignatures 项）
func (t *DecodedTransaction) Signers() []types.PublicKey {
	n := int(t.NumRequiredSignatures)
	if n > len(t.AccountKeys) {
		n = len(t.AccountKeys)
	}
	return t.AccountKeys[:n]
}

// IsSignedBy 签名者 pk 的槽位是否已填充
func (t *DecodedTransaction) IsSignedBy(pk types.PublicKey) bool {
	for i, signer := range t.Signers() {
		if signer == pk && i < len(t.Signatures) {
			return t.Signatures[i] != [64]byte{}
		}
	}
	return false
}

// MissingSigners 尚未签名的签名者
func (t *DecodedTransaction) MissingSigners() []types.PublicKey {
	var out []types.PublicKey
	for _, signer := range t.Signers() {
		if !t.IsSignedBy(signer) {
			out = append(out, signer)
		}
	}
	return out
}

// DecodeTransaction 解码 base64 编码的交易（RegisterAgentResponse.Transaction）
//
// 只解析签名、消息头、账户列表与 recent blockhash，不解析指令。
func DecodeTransaction(b64 string) (*DecodedTransaction, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedTransaction, err)
	}
	p := &parser{buf: raw}

	// 1. 签名
	nSigs, err := p.compactU16()
	if err != nil {
		return nil, err
	}
	tx := &DecodedTransaction{Signatures: make([][64]byte, nSigs)}
	for i := range tx.Signatures {
		b, err := p.take(64)
		if err != nil {
			return nil, err
		}
		copy(tx.Signatures[i][:], b)
	}
	tx.Message = raw[p.pos:]

	// 2. 版本前缀（最高位为 1）
	first, err := p.peek()
	if err != nil {
		return nil, err
	}
	if first&0x80 != 0 {
		v := first & 0x7f
		tx.Version = &v
		p.pos++
	}

	// 3. 消息头
	header, err := p.take(3)
	if err != nil {
		return nil, err
	}
	tx.NumRequiredSignatures = header[0]

	// 4. 账户与 blockhash
	nKeys, err := p.compactU16()
	if err != nil {
		return nil, err
	}
	tx.AccountKeys = make([]types.PublicKey, nKeys)
	for i := range tx.AccountKeys {
		b, err := p.take(types.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		copy(tx.AccountKeys[i][:], b)
	}
	bh, err := p.take(32)
	if err != nil {
		return nil, err
	}
	tx.RecentBlockhash = base58.Encode(bh)

	if int(tx.NumRequiredSignatures) != len(tx.Signatures) {
		return nil, fmt.Errorf("%w: %d signatures for %d required signers", ErrMalformedTransaction, len(tx.Signatures), tx.NumRequiredSignatures)
	}
	return tx, nil
}

type parser struct {
	buf []byte
	pos int
}

func (p *parser) peek() (byte, error) {
	if p.pos >= len(p.buf) {
		return 0, fmt.Errorf("%w: unexpected end at %d", ErrMalformedTransaction, p.pos)
	}
	return p.buf[p.pos], nil
}

func (p *parser) take(n int) ([]byte, error) {
	if n < 0 || p.pos+n > len(p.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at %d, have %d", ErrMalformedTransaction, n, p.pos, len(p.buf)-p.pos)
	}
	out := p.buf[p.pos : p.pos+n]
	p.pos += n
	return out, nil
}

// compactU16 Solana short_vec 长度编码（最多 3 字节）
func (p *parser) compactU16() (int, error) {
	var v int
	for i := 0; i < 3; i++ {
		b, err := p.peek()
		if err != nil {
			return 0, err
		}
		p.pos++
		v |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: compact-u16 too long", ErrMalformedTransaction)
}
