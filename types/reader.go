package types

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Reader Borsh 读取器（账户与事件解码共用）
//
// 与 ArgEncoder 相同，首个错误会保留并使后续读取返回零值。
type Reader struct {
	dec *bin.Decoder
	err error
}

// NewReader 创建读取器
func NewReader(data []byte) *Reader {
	return &Reader{dec: bin.NewBorshDecoder(data)}
}

// Err 返回首个读取错误
func (r *Reader) Err() error {
	return r.err
}

// Remaining 剩余未读字节数
func (r *Reader) Remaining() int {
	return r.dec.Remaining()
}

func (r *Reader) fail(field string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("decode %s: %w", field, err)
	}
}

// Discriminator 读取并校验 8 字节判别码
func (r *Reader) Discriminator(want Discriminator) {
	if r.err != nil {
		return
	}
	got, err := r.dec.ReadNBytes(DiscriminatorLength)
	if err != nil {
		r.fail("discriminator", err)
		return
	}
	var d Discriminator
	copy(d[:], got)
	if d != want {
		r.fail("discriminator", fmt.Errorf("mismatch: expected %x, got %x", want[:], d[:]))
	}
}

func (r *Reader) U8(field string) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *Reader) U16(field string) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint16(binary.LittleEndian)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *Reader) U32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *Reader) U64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *Reader) I64(field string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(binary.LittleEndian)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *Reader) Bool(field string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadBool()
	if err != nil {
		r.fail(field, err)
	}
	return v
}

// Str 读取 u32 长度前缀字符串
func (r *Reader) Str(field string) string {
	if r.err != nil {
		return ""
	}
	n := r.U32(field)
	if r.err != nil {
		return ""
	}
	if int(n) > r.dec.Remaining() {
		r.fail(field, fmt.Errorf("string length %d exceeds remaining %d bytes", n, r.dec.Remaining()))
		return ""
	}
	b, err := r.dec.ReadNBytes(int(n))
	if err != nil {
		r.fail(field, err)
		return ""
	}
	return string(b)
}

// Bytes32 读取定长 32 字节
func (r *Reader) Bytes32(field string) [32]byte {
	var out [32]byte
	r.fixed(field, out[:])
	return out
}

// Bytes64 读取定长 64 字节
func (r *Reader) Bytes64(field string) [64]byte {
	var out [64]byte
	r.fixed(field, out[:])
	return out
}

func (r *Reader) fixed(field string, dst []byte) {
	if r.err != nil {
		return
	}
	b, err := r.dec.ReadNBytes(len(dst))
	if err != nil {
		r.fail(field, err)
		return
	}
	copy(dst, b)
}

func (r *Reader) PublicKey(field string) PublicKey {
	return PublicKey(r.Bytes32(field))
}

// PublicKeys 读取 vec<pubkey>，max 为上限（0 表示不限制）
func (r *Reader) PublicKeys(field string, max int) []PublicKey {
	n := r.vecLen(field, max, PublicKeyLength)
	if r.err != nil {
		return nil
	}
	out := make([]PublicKey, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.PublicKey(field))
	}
	if r.err != nil {
		return nil
	}
	return out
}

// Bytes32Vec 读取 vec<[u8;32]>
func (r *Reader) Bytes32Vec(field string, max int) [][32]byte {
	n := r.vecLen(field, max, 32)
	if r.err != nil {
		return nil
	}
	out := make([][32]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.Bytes32(field))
	}
	if r.err != nil {
		return nil
	}
	return out
}

func (r *Reader) vecLen(field string, max, elemSize int) int {
	n := int(r.U32(field))
	if r.err != nil {
		return 0
	}
	if max > 0 && n > max {
		r.fail(field, fmt.Errorf("vector length %d exceeds maximum %d", n, max))
		return 0
	}
	if n*elemSize > r.dec.Remaining() {
		r.fail(field, fmt.Errorf("vector length %d exceeds remaining data", n))
		return 0
	}
	return n
}

func (r *Reader) optionTag(field string) bool {
	tag := r.U8(field)
	if r.err != nil {
		return false
	}
	switch tag {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(field, fmt.Errorf("invalid option tag %d", tag))
		return false
	}
}

func (r *Reader) OptionPublicKey(field string) *PublicKey {
	if !r.optionTag(field) {
		return nil
	}
	pk := r.PublicKey(field)
	if r.err != nil {
		return nil
	}
	return &pk
}

func (r *Reader) OptionU64(field string) *uint64 {
	if !r.optionTag(field) {
		return nil
	}
	v := r.U64(field)
	if r.err != nil {
		return nil
	}
	return &v
}

func (r *Reader) OptionI64(field string) *int64 {
	if !r.optionTag(field) {
		return nil
	}
	v := r.I64(field)
	if r.err != nil {
		return nil
	}
	return &v
}
