package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/utils"
)

func key(b byte) types.PublicKey {
	var pk types.PublicKey
	pk[0] = b
	pk[31] = b
	return pk
}

func TestBuildValidationRequestIx(t *testing.T) {
	cfg := services.Devnet()
	caller, mint, validator := key(1), key(2), key(3)
	hash := utils.HashBytes([]byte("audit report v1"))
	tag := utils.HashTag("security")

	res, err := BuildValidationRequestIx(cfg, RequestIntent{
		Caller:      caller,
		NftMint:     mint,
		Validator:   validator,
		RequestHash: hash,
		Tag:         tag,
		RequestURI:  "ipfs://request",
	})
	require.NoError(t, err)

	d := cfg.Deriver()
	reqPDA, _ := d.ValidationRequest(mint, validator, hash)
	agentPDA, _ := d.Agent(mint)
	configPDA, _ := d.Config()
	assert.Equal(t, reqPDA.Key, res.ValidationRequestPDA)

	assert.Equal(t, []types.AccountMeta{
		types.Meta(caller, true, true),
		types.Meta(configPDA.Key, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(mint, false, false),
		types.Meta(reqPDA.Key, false, true),
		types.Meta(cfg.Program(), false, false),
		types.Meta(types.SystemProgramID, false, false),
	}, res.Instruction.Accounts())

	r := types.NewReader(res.Instruction.Data())
	r.Discriminator(types.InstructionDiscriminator("validationRequest"))
	assert.Equal(t, validator, r.PublicKey("validator"))
	assert.Equal(t, hash, r.Bytes32("requestHash"))
	assert.Equal(t, tag, r.Bytes32("tag"))
	assert.Equal(t, "ipfs://request", r.Str("requestUri"))
	require.NoError(t, r.Err())
	assert.Zero(t, r.Remaining())

	_, err = BuildValidationRequestIx(cfg, RequestIntent{RequestURI: strings.Repeat("u", 201)})
	assert.ErrorIs(t, err, types.ErrFieldTooLong)
}

func TestBuildValidationResponseIx(t *testing.T) {
	cfg := services.Devnet()
	mint, validator := key(2), key(3)
	hash := utils.HashBytes([]byte("audit report v1"))

	res, err := BuildValidationResponseIx(cfg, ResponseIntent{
		Validator:    validator,
		NftMint:      mint,
		RequestHash:  hash,
		Score:        100,
		EvidenceURI:  "ipfs://evidence",
		EvidenceHash: [32]byte{1},
	})
	require.NoError(t, err)

	req, err := BuildValidationRequestIx(cfg, RequestIntent{NftMint: mint, Validator: validator, RequestHash: hash})
	require.NoError(t, err)
	assert.Equal(t, req.ValidationRequestPDA, res.ValidationRequestPDA)
	assert.NotEqual(t, res.ValidationRequestPDA, res.ValidationResponsePDA)

	accounts := res.Instruction.Accounts()
	require.Len(t, accounts, 5)
	assert.Equal(t, types.Meta(validator, true, true), accounts[0])
	assert.Equal(t, types.Meta(res.ValidationRequestPDA, false, true), accounts[2])
	assert.Equal(t, types.Meta(res.ValidationResponsePDA, false, true), accounts[3])

	r := types.NewReader(res.Instruction.Data())
	r.Discriminator(types.InstructionDiscriminator("validationResponse"))
	assert.Equal(t, uint8(100), r.U8("score"))
	assert.Equal(t, [32]byte{}, r.Bytes32("tag"))
	assert.Equal(t, "ipfs://evidence", r.Str("evidenceUri"))
	assert.Equal(t, [32]byte{1}, r.Bytes32("evidenceHash"))
	require.NoError(t, r.Err())

	_, err = BuildValidationResponseIx(cfg, ResponseIntent{Score: 101})
	assert.ErrorIs(t, err, types.ErrValueOutOfRange)
}
