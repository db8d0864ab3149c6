package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// ArgEncoder Anchor 指令参数编码器（Borsh）
//
// 写入失败后错误会保留，后续写入被忽略，最终由 Bytes 返回。
type ArgEncoder struct {
	buf *bytes.Buffer
	enc *bin.Encoder
	err error
}

// NewArgEncoder 以指令判别码开头创建编码器
func NewArgEncoder(disc Discriminator) *ArgEncoder {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	return &ArgEncoder{buf: buf, enc: bin.NewBorshEncoder(buf)}
}

func (e *ArgEncoder) do(field string, fn func() error) *ArgEncoder {
	if e.err != nil {
		return e
	}
	if err := fn(); err != nil {
		e.err = fmt.Errorf("encode %s: %w", field, err)
	}
	return e
}

// Bool 写入布尔值
func (e *ArgEncoder) Bool(field string, v bool) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteBool(v) })
}

// U8 写入 u8
func (e *ArgEncoder) U8(field string, v uint8) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteUint8(v) })
}

// U16 写入 u16（小端）
func (e *ArgEncoder) U16(field string, v uint16) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteUint16(v, binary.LittleEndian) })
}

// U64 写入 u64（小端）
func (e *ArgEncoder) U64(field string, v uint64) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteUint64(v, binary.LittleEndian) })
}

// I64 写入 i64（小端）
func (e *ArgEncoder) I64(field string, v int64) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteInt64(v, binary.LittleEndian) })
}

// Str 写入 u32 长度前缀的 UTF-8 字符串
func (e *ArgEncoder) Str(field string, v string) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteString(v) })
}

// Fixed 写入定长字节数组（无长度前缀），长度必须等于 size
func (e *ArgEncoder) Fixed(field string, v []byte, size int) *ArgEncoder {
	return e.do(field, func() error {
		if len(v) != size {
			return fmt.Errorf("expected %d bytes, got %d", size, len(v))
		}
		return e.enc.WriteBytes(v, false)
	})
}

// PublicKey 写入 32 字节公钥
func (e *ArgEncoder) PublicKey(field string, v PublicKey) *ArgEncoder {
	return e.do(field, func() error { return e.enc.WriteBytes(v[:], false) })
}

// PublicKeys 写入 vec<pubkey>
func (e *ArgEncoder) PublicKeys(field string, v []PublicKey) *ArgEncoder {
	return e.do(field, func() error {
		if err := e.enc.WriteUint32(uint32(len(v)), binary.LittleEndian); err != nil {
			return err
		}
		for _, pk := range v {
			if err := e.enc.WriteBytes(pk[:], false); err != nil {
				return err
			}
		}
		return nil
	})
}

// Bytes32Vec 写入 vec<[u8;32]>
func (e *ArgEncoder) Bytes32Vec(field string, v [][32]byte) *ArgEncoder {
	return e.do(field, func() error {
		if err := e.enc.WriteUint32(uint32(len(v)), binary.LittleEndian); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.enc.WriteBytes(item[:], false); err != nil {
				return err
			}
		}
		return nil
	})
}

// OptionU64 写入 Option<u64>
func (e *ArgEncoder) OptionU64(field string, v *uint64) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteUint64(*v, binary.LittleEndian) })
}

// OptionI64 写入 Option<i64>
func (e *ArgEncoder) OptionI64(field string, v *int64) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteInt64(*v, binary.LittleEndian) })
}

// OptionU16 写入 Option<u16>
func (e *ArgEncoder) OptionU16(field string, v *uint16) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteUint16(*v, binary.LittleEndian) })
}

// OptionBool 写入 Option<bool>
func (e *ArgEncoder) OptionBool(field string, v *bool) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteBool(*v) })
}

// OptionString 写入 Option<String>
func (e *ArgEncoder) OptionString(field string, v *string) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteString(*v) })
}

// OptionPublicKey 写入 Option<Pubkey>
func (e *ArgEncoder) OptionPublicKey(field string, v *PublicKey) *ArgEncoder {
	return e.option(field, v != nil, func() error { return e.enc.WriteBytes(v[:], false) })
}

func (e *ArgEncoder) option(field string, some bool, write func() error) *ArgEncoder {
	return e.do(field, func() error {
		if !some {
			return e.enc.WriteUint8(0)
		}
		if err := e.enc.WriteUint8(1); err != nil {
			return err
		}
		return write()
	})
}

// Bytes 返回编码结果
func (e *ArgEncoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}

// Ptr 返回值的指针，便于填充 Option 字段
func Ptr[T any](v T) *T {
	return &v
}
