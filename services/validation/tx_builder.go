// Package validation 第三方验证指令：validation_request、validation_response
package validation

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

var (
	discValidationRequest  = types.InstructionDiscriminator("validationRequest")
	discValidationResponse = types.InstructionDiscriminator("validationResponse")
)

// RequestIntent 发起验证请求意图
type RequestIntent struct {
	Caller      types.PublicKey
	NftMint     types.PublicKey
	Validator   types.PublicKey
	RequestHash [32]byte // 前 8 字节参与 PDA 种子
	Tag         [32]byte
	RequestURI  string // ≤ 200 字节
	Delegation  *types.PublicKey
}

// ResponseIntent 验证响应意图（每个请求只能响应一次）
type ResponseIntent struct {
	Validator    types.PublicKey
	NftMint      types.PublicKey
	RequestHash  [32]byte
	Score        uint8 // 0..100
	Tag          [32]byte
	EvidenceURI  string // ≤ 200 字节
	EvidenceHash [32]byte
}

// RequestResult 请求构建结果
type RequestResult struct {
	Instruction          *types.Instruction
	ValidationRequestPDA types.PublicKey
}

// ResponseResult 响应构建结果
type ResponseResult struct {
	Instruction           *types.Instruction
	ValidationRequestPDA  types.PublicKey
	ValidationResponsePDA types.PublicKey
}

// BuildValidationRequestIx 构建 validation_request 指令
//
// **签名者**：caller（所有者或被委托人）
func BuildValidationRequestIx(cfg services.Config, intent RequestIntent) (*RequestResult, error) {
	if err := types.CheckMaxLen("requestUri", intent.RequestURI, types.MaxURILength); err != nil {
		return nil, err
	}
	d := cfg.Deriver()
	reqPDA, err := d.ValidationRequest(intent.NftMint, intent.Validator, intent.RequestHash)
	if err != nil {
		return nil, fmt.Errorf("derive validation request: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}

	data, err := types.NewArgEncoder(discValidationRequest).
		PublicKey("validator", intent.Validator).
		Fixed("requestHash", intent.RequestHash[:], 32).
		Fixed("tag", intent.Tag[:], 32).
		Str("requestUri", intent.RequestURI).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, true),
		types.Meta(configPDA.Key, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(reqPDA.Key, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &RequestResult{
		Instruction:          types.NewInstruction(cfg.Program(), accounts, data),
		ValidationRequestPDA: reqPDA.Key,
	}, nil
}

// BuildValidationResponseIx 构建 validation_response 指令
//
// **签名者**：validator（必须与请求中的验证者一致）
func BuildValidationResponseIx(cfg services.Config, intent ResponseIntent) (*ResponseResult, error) {
	if err := types.CheckScore("score", intent.Score); err != nil {
		return nil, err
	}
	if err := types.CheckMaxLen("evidenceUri", intent.EvidenceURI, types.MaxURILength); err != nil {
		return nil, err
	}
	d := cfg.Deriver()
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	reqPDA, err := d.ValidationRequest(intent.NftMint, intent.Validator, intent.RequestHash)
	if err != nil {
		return nil, fmt.Errorf("derive validation request: %w", err)
	}
	respPDA, err := d.ValidationResponse(intent.NftMint, intent.Validator, intent.RequestHash)
	if err != nil {
		return nil, fmt.Errorf("derive validation response: %w", err)
	}

	data, err := types.NewArgEncoder(discValidationResponse).
		U8("score", intent.Score).
		Fixed("tag", intent.Tag[:], 32).
		Str("evidenceUri", intent.EvidenceURI).
		Fixed("evidenceHash", intent.EvidenceHash[:], 32).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Validator, true, true),
		types.Meta(agentPDA.Key, false, true),
		types.Meta(reqPDA.Key, false, true),
		types.Meta(respPDA.Key, false, true),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &ResponseResult{
		Instruction:           types.NewInstruction(cfg.Program(), accounts, data),
		ValidationRequestPDA:  reqPDA.Key,
		ValidationResponsePDA: respPDA.Key,
	}, nil
}
