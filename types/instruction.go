package types

import (
	"crypto/sha256"
	"fmt"
	"unicode"
)

// DiscriminatorLength Anchor 判别码长度
const DiscriminatorLength = 8

// Discriminator 8 字节判别码
type Discriminator [DiscriminatorLength]byte

// InstructionDiscriminator 指令判别码：sha256("global:<snake_case 名称>")[:8]
//
// name 可以是 camelCase（IDL 名称）或 snake_case。
func InstructionDiscriminator(name string) Discriminator {
	return discriminator("global:" + toSnakeCase(name))
}

// AccountDiscriminator 账户判别码：sha256("account:<PascalCase 名称>")[:8]
func AccountDiscriminator(name string) Discriminator {
	return discriminator("account:" + toPascalCase(name))
}

// EventDiscriminator 事件判别码：sha256("event:<PascalCase 名称>")[:8]
func EventDiscriminator(name string) Discriminator {
	return discriminator("event:" + toPascalCase(name))
}

func discriminator(preimage string) Discriminator {
	sum := sha256.Sum256([]byte(preimage))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

func toSnakeCase(name string) string {
	out := make([]rune, 0, len(name)+4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				out = append(out, '_')
			}
			out = append(out, unicode.ToLower(r))
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func toPascalCase(name string) string {
	if name == "" {
		return name
	}
	out := make([]rune, 0, len(name))
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			out = append(out, unicode.ToUpper(r))
			upper = false
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// AccountMeta 指令账户元数据
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// Meta 构造 AccountMeta
func Meta(pk PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: signer, IsWritable: writable}
}

// Instruction 不可变的指令请求
//
// 字段只能通过访问器读取，访问器返回副本。
type Instruction struct {
	programID PublicKey
	accounts  []AccountMeta
	data      []byte
}

// NewInstruction 构造指令（拷贝入参）
func NewInstruction(programID PublicKey, accounts []AccountMeta, data []byte) *Instruction {
	accs := make([]AccountMeta, len(accounts))
	copy(accs, accounts)
	d := make([]byte, len(data))
	copy(d, data)
	return &Instruction{programID: programID, accounts: accs, data: d}
}

// ProgramID 目标程序
func (ix *Instruction) ProgramID() PublicKey {
	return ix.programID
}

// Accounts 账户列表副本（顺序即链上顺序）
func (ix *Instruction) Accounts() []AccountMeta {
	out := make([]AccountMeta, len(ix.accounts))
	copy(out, ix.accounts)
	return out
}

// Data 指令数据副本
func (ix *Instruction) Data() []byte {
	out := make([]byte, len(ix.data))
	copy(out, ix.data)
	return out
}

// Discriminator 指令数据前 8 字节；Ed25519 等非 Anchor 指令返回零值
func (ix *Instruction) Discriminator() Discriminator {
	var d Discriminator
	if len(ix.data) >= DiscriminatorLength {
		copy(d[:], ix.data[:DiscriminatorLength])
	}
	return d
}

// Account 按下标读取账户
func (ix *Instruction) Account(i int) (AccountMeta, error) {
	if i < 0 || i >= len(ix.accounts) {
		return AccountMeta{}, fmt.Errorf("account index %d out of range [0,%d)", i, len(ix.accounts))
	}
	return ix.accounts[i], nil
}

// Signers 需要签名的账户
func (ix *Instruction) Signers() []PublicKey {
	var out []PublicKey
	for _, a := range ix.accounts {
		if a.IsSigner {
			out = append(out, a.PublicKey)
		}
	}
	return out
}

// OptionalMeta Anchor 可选账户
//
// 缺省时以程序 ID 占位（只读、非签名），而不是零地址。
func OptionalMeta(pk *PublicKey, programID PublicKey, signer, writable bool) AccountMeta {
	if pk == nil {
		return AccountMeta{PublicKey: programID}
	}
	return AccountMeta{PublicKey: *pk, IsSigner: signer, IsWritable: writable}
}
