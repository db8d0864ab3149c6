// Package reputation 反馈指令：give_feedback、revoke_feedback
package reputation

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/wallet"
)

var (
	discGiveFeedback   = types.InstructionDiscriminator("giveFeedback")
	discRevokeFeedback = types.InstructionDiscriminator("revokeFeedback")
)

// GiveFeedbackIntent 提交反馈意图
type GiveFeedbackIntent struct {
	Reviewer      types.PublicKey
	NftMint       types.PublicKey
	Score         uint8 // 0..100
	Tag1          [32]byte
	Tag2          [32]byte
	DetailURI     string // ≤ 200 字节
	DetailHash    [32]byte
	FeedbackAuth  [64]byte // 反馈权限对 reviewer‖nftMint 的签名
	FeedbackNonce int64
	// PaymentReceipt 可选：付款收据，证明 reviewer 为该代理付过费
	PaymentReceipt *types.PublicKey
	// FeedbackAuthority 可选：提供时自动签名并生成 Ed25519 校验指令
	FeedbackAuthority wallet.Signer
}

// GiveFeedbackResult 提交反馈构建结果
type GiveFeedbackResult struct {
	// Ed25519Instruction 必须紧挨在 Instruction 之前；未提供签名者时为 nil
	Ed25519Instruction *types.Instruction
	Instruction        *types.Instruction
	FeedbackPDA        types.PublicKey
}

// RevokeFeedbackIntent 撤销反馈意图
type RevokeFeedbackIntent struct {
	Reviewer      types.PublicKey
	NftMint       types.PublicKey
	FeedbackNonce int64
}

// RevokeFeedbackResult 撤销反馈构建结果
type RevokeFeedbackResult struct {
	Instruction *types.Instruction
	FeedbackPDA types.PublicKey
}

// BuildGiveFeedbackIx 构建 give_feedback 指令
//
// **流程**：
// 1. 校验评分与 URI 长度
// 2. 推导 config、agent、feedback PDA
// 3. 若提供 FeedbackAuthority，签名并构建 Ed25519 校验指令；FeedbackAuth 为空时以该签名填充
// 4. 编码参数与账户
//
// **签名者**：reviewer
func BuildGiveFeedbackIx(cfg services.Config, intent GiveFeedbackIntent) (*GiveFeedbackResult, error) {
	// 1. 校验
	if err := types.CheckScore("score", intent.Score); err != nil {
		return nil, err
	}
	if err := types.CheckMaxLen("detailUri", intent.DetailURI, types.MaxURILength); err != nil {
		return nil, err
	}

	// 2. 推导地址
	d := cfg.Deriver()
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	feedbackPDA, err := d.Feedback(intent.NftMint, intent.Reviewer, intent.FeedbackNonce)
	if err != nil {
		return nil, fmt.Errorf("derive feedback: %w", err)
	}

	// 3. Ed25519 校验指令
	var edIx *types.Instruction
	auth := intent.FeedbackAuth
	if intent.FeedbackAuthority != nil {
		msg := FeedbackAuthMessage(intent.Reviewer, intent.NftMint)
		sig, err := intent.FeedbackAuthority.SignMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("sign feedback authorization: %w", err)
		}
		edIx = BuildEd25519VerifyIx(intent.FeedbackAuthority.PublicKey(), sig, msg)
		if auth == ([64]byte{}) {
			auth = sig
		}
	}

	// 4. 编码
	data, err := types.NewArgEncoder(discGiveFeedback).
		U8("score", intent.Score).
		Fixed("tag1", intent.Tag1[:], 32).
		Fixed("tag2", intent.Tag2[:], 32).
		Str("detailUri", intent.DetailURI).
		Fixed("detailHash", intent.DetailHash[:], 32).
		Fixed("feedbackAuth", auth[:], 64).
		I64("feedbackNonce", intent.FeedbackNonce).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Reviewer, true, true),
		types.Meta(configPDA.Key, false, false),
		types.Meta(agentPDA.Key, false, true),
		types.Meta(intent.NftMint, false, false),
		types.Meta(feedbackPDA.Key, false, true),
		types.OptionalMeta(intent.PaymentReceipt, cfg.Program(), false, true),
		types.Meta(types.SysvarInstructionsID, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &GiveFeedbackResult{
		Ed25519Instruction: edIx,
		Instruction:        types.NewInstruction(cfg.Program(), accounts, data),
		FeedbackPDA:        feedbackPDA.Key,
	}, nil
}

// BuildRevokeFeedbackIx 构建 revoke_feedback 指令（签名者：原反馈作者）
func BuildRevokeFeedbackIx(cfg services.Config, intent RevokeFeedbackIntent) (*RevokeFeedbackResult, error) {
	d := cfg.Deriver()
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	feedbackPDA, err := d.Feedback(intent.NftMint, intent.Reviewer, intent.FeedbackNonce)
	if err != nil {
		return nil, fmt.Errorf("derive feedback: %w", err)
	}
	data, err := types.NewArgEncoder(discRevokeFeedback).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Reviewer, true, false),
		types.Meta(agentPDA.Key, false, true),
		types.Meta(feedbackPDA.Key, false, true),
	}
	return &RevokeFeedbackResult{
		Instruction: types.NewInstruction(cfg.Program(), accounts, data),
		FeedbackPDA: feedbackPDA.Key,
	}, nil
}
