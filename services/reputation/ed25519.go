package reputation

import (
	"encoding/binary"

	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/wallet"
)

// Ed25519 预编译程序指令布局（单签名，数据全部内联在本指令中）
const (
	ed25519HeaderSize    = 16
	ed25519PubkeyOffset  = ed25519HeaderSize
	ed25519SigOffset     = ed25519PubkeyOffset + 32
	ed25519MessageOffset = ed25519SigOffset + 64
	ed25519CurrentIx     = 0xffff
)

// FeedbackAuthMessage 反馈授权消息：reviewer(32) ‖ nftMint(32)
func FeedbackAuthMessage(reviewer, nftMint types.PublicKey) []byte {
	msg := make([]byte, 0, 64)
	msg = append(msg, reviewer.Bytes()...)
	return append(msg, nftMint.Bytes()...)
}

// SignFeedbackAuthorization 由反馈权限对 (reviewer, nftMint) 签名
func SignFeedbackAuthorization(authority wallet.Signer, reviewer, nftMint types.PublicKey) ([64]byte, error) {
	return authority.SignMessage(FeedbackAuthMessage(reviewer, nftMint))
}

// BuildEd25519VerifyIx 构建 Ed25519 签名校验指令
//
// 数据布局：
//
//	u8 签名数(1) ‖ u8 填充 ‖ u16 sigOffset ‖ u16 sigIx ‖ u16 pkOffset ‖ u16 pkIx
//	‖ u16 msgOffset ‖ u16 msgSize ‖ u16 msgIx ‖ pubkey(32) ‖ sig(64) ‖ message
//
// 三个 *Ix 字段均为 0xffff，表示数据位于本指令内。
func BuildEd25519VerifyIx(pubkey types.PublicKey, sig [64]byte, message []byte) *types.Instruction {
	data := make([]byte, ed25519MessageOffset+len(message))
	data[0] = 1
	data[1] = 0
	le := binary.LittleEndian
	le.PutUint16(data[2:], ed25519SigOffset)
	le.PutUint16(data[4:], ed25519CurrentIx)
	le.PutUint16(data[6:], ed25519PubkeyOffset)
	le.PutUint16(data[8:], ed25519CurrentIx)
	le.PutUint16(data[10:], ed25519MessageOffset)
	le.PutUint16(data[12:], uint16(len(message)))
	le.PutUint16(data[14:], ed25519CurrentIx)
	copy(data[ed25519PubkeyOffset:], pubkey.Bytes())
	copy(data[ed25519SigOffset:], sig[:])
	copy(data[ed25519MessageOffset:], message)
	return types.NewInstruction(types.Ed25519ProgramID, nil, data)
}
