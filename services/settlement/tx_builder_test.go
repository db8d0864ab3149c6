package settlement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

func testKey(b byte) types.PublicKey {
	var pk types.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func settleIntent(mode Mode) SettleIntent {
	return SettleIntent{
		Payer:             testKey(1),
		NftMint:           testKey(2),
		ServiceType:       types.ServiceTypeAPI,
		PaymentID:         [32]byte{7},
		TxSignature:       [64]byte{8},
		Amount:            100000,
		Resource:          "/v1/forecast",
		Mode:              mode,
		SettlementFeeBps:  services.DefaultSettlementFeeBps,
		PayerTokenAccount: testKey(3),
		PayeeTokenAccount: testKey(4),
	}
}

func TestBuildVerifyAndSettleIx_Atomic(t *testing.T) {
	cfg := services.Devnet()
	intent := settleIntent(AtomicMode{})

	res, err := BuildVerifyAndSettleIx(cfg, intent)
	require.NoError(t, err)
	assert.Nil(t, res.Vault)
	assert.Nil(t, res.VaultAuthority)
	assert.Equal(t, Fee{Fee: 3000, Net: 97000}, res.Fee)

	d := cfg.Deriver()
	receipt, err := d.Receipt(intent.PaymentID)
	require.NoError(t, err)
	agentPDA, err := d.Agent(intent.NftMint)
	require.NoError(t, err)
	reqPDA, err := d.PaymentRequirement(intent.NftMint, intent.ServiceType)
	require.NoError(t, err)
	configPDA, err := d.Config()
	require.NoError(t, err)
	assert.Equal(t, receipt.Key, res.ReceiptPDA)

	program := cfg.Program()
	want := []types.AccountMeta{
		types.Meta(intent.Payer, true, true),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(reqPDA.Key, false, false),
		types.Meta(intent.PayerTokenAccount, false, true),
		types.Meta(intent.PayeeTokenAccount, false, true),
		types.Meta(*cfg.TreasuryTokenAccount, false, true),
		types.Meta(*cfg.TokenMint, false, false),
		types.Meta(types.TokenProgramID, false, false),
		types.Meta(configPDA.Key, false, false),
		types.Meta(receipt.Key, false, true),
		types.Meta(program, false, false),
		types.Meta(program, false, false),
		types.Meta(program, false, false),
		types.Meta(program, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	assert.Equal(t, want, res.Instruction.Accounts())
	assert.Equal(t, []types.PublicKey{intent.Payer}, res.Instruction.Signers())

	r := types.NewReader(res.Instruction.Data())
	r.Discriminator(types.InstructionDiscriminator("verifyAndSettle"))
	assert.Equal(t, intent.PaymentID, r.Bytes32("paymentId"))
	assert.Equal(t, intent.TxSignature, r.Bytes64("txSignature"))
	assert.Equal(t, uint64(100000), r.U64("amount"))
	assert.Equal(t, "/v1/forecast", r.Str("resource"))
	assert.Equal(t, uint8(types.SettlementAtomic), r.U8("settlementMode"))
	require.NoError(t, r.Err())
	assert.Zero(t, r.Remaining())
}

func TestBuildVerifyAndSettleIx_Attestation(t *testing.T) {
	cfg := services.Devnet()
	facilitator := *cfg.Facilitator

	res, err := BuildVerifyAndSettleIx(cfg, settleIntent(AttestationMode{Facilitator: facilitator}))
	require.NoError(t, err)

	accounts := res.Instruction.Accounts()
	assert.Equal(t, types.Meta(facilitator, true, false), accounts[11])
	assert.Equal(t, types.Meta(cfg.Program(), false, false), accounts[12])
	assert.Equal(t, []types.PublicKey{testKey(1), facilitator}, res.Instruction.Signers())

	r := types.NewReader(res.Instruction.Data()[types.DiscriminatorLength+32+64+8:])
	_ = r.Str("resource")
	assert.Equal(t, uint8(types.SettlementAttestation), r.U8("settlementMode"))
}

func TestBuildVerifyAndSettleIx_Delegated(t *testing.T) {
	cfg := services.Devnet()
	delegation := testKey(9)
	mode := DelegatedMode{Facilitator: *cfg.Facilitator, Delegation: delegation}

	res, err := BuildVerifyAndSettleIx(cfg, settleIntent(mode))
	require.NoError(t, err)

	vault, err := cfg.Deriver().DelegationVault(delegation)
	require.NoError(t, err)
	authority, err := cfg.Deriver().VaultAuthority(delegation)
	require.NoError(t, err)
	require.NotNil(t, res.Vault)
	assert.Equal(t, vault.Key, *res.Vault)
	assert.Equal(t, authority.Key, *res.VaultAuthority)

	accounts := res.Instruction.Accounts()
	assert.Equal(t, types.Meta(delegation, false, true), accounts[12])
	assert.Equal(t, types.Meta(vault.Key, false, true), accounts[13])
	assert.Equal(t, types.Meta(authority.Key, false, false), accounts[14])
}

func TestBuildVerifyAndSettleIx_Rejected(t *testing.T) {
	cfg := services.Devnet()

	tests := []struct {
		name    string
		cfg     services.Config
		intent  SettleIntent
		wantErr error
	}{
		{
			name:    "no mode",
			cfg:     cfg,
			intent:  settleIntent(nil),
			wantErr: ErrModeRequired,
		},
		{
			name:    "attestation without facilitator",
			cfg:     cfg,
			intent:  settleIntent(AttestationMode{}),
			wantErr: ErrFacilitatorRequired,
		},
		{
			name:    "delegated without facilitator",
			cfg:     cfg,
			intent:  settleIntent(DelegatedMode{Delegation: testKey(9)}),
			wantErr: ErrFacilitatorRequired,
		},
		{
			name:    "delegated without delegation",
			cfg:     cfg,
			intent:  settleIntent(DelegatedMode{Facilitator: testKey(5)}),
			wantErr: ErrDelegationRequired,
		},
		{
			name: "resource too long",
			cfg:  cfg,
			intent: func() SettleIntent {
				in := settleIntent(AtomicMode{})
				in.Resource = strings.Repeat("r", types.MaxResourceLength+1)
				return in
			}(),
			wantErr: types.ErrFieldTooLong,
		},
		{
			name: "fee rate above maximum",
			cfg:  cfg,
			intent: func() SettleIntent {
				in := settleIntent(AtomicMode{})
				in.SettlementFeeBps = services.MaxSettlementFeeBps + 1
				return in
			}(),
			wantErr: types.ErrValueOutOfRange,
		},
		{
			name:    "token mint not configured",
			cfg:     services.Mainnet(),
			intent:  settleIntent(AtomicMode{}),
			wantErr: types.ErrRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := BuildVerifyAndSettleIx(tt.cfg, tt.intent)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildVerifyAndSettleIx_FeeSplit(t *testing.T) {
	cfg := services.Devnet()

	tests := []struct {
		name   string
		amount uint64
		bps    uint16
		want   Fee
	}{
		{"protocol default", 100000, 300, Fee{Fee: 3000, Net: 97000}},
		{"zero rate", 100000, 0, Fee{Fee: 0, Net: 100000}},
		{"maximum rate", 100000, services.MaxSettlementFeeBps, Fee{Fee: 10000, Net: 90000}},
		{"rounds down", 333, 300, Fee{Fee: 9, Net: 324}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := settleIntent(AtomicMode{})
			intent.Amount = tt.amount
			intent.SettlementFeeBps = tt.bps
			res, err := BuildVerifyAndSettleIx(cfg, intent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Fee)
			assert.Equal(t, tt.amount, res.Fee.Fee+res.Fee.Net)

			// 金额按原值编码，拆分由程序执行
			r := types.NewReader(res.Instruction.Data()[types.DiscriminatorLength+32+64:])
			assert.Equal(t, tt.amount, r.U64("amount"))
		})
	}
}

func TestBuildVerifyAndSettleIx_IntentOverridesConfig(t *testing.T) {
	cfg := services.Mainnet()
	mint, treasury := testKey(20), testKey(21)
	intent := settleIntent(AtomicMode{})
	intent.TokenMint = &mint
	intent.TreasuryTokenAccount = &treasury

	res, err := BuildVerifyAndSettleIx(cfg, intent)
	require.NoError(t, err)
	accounts := res.Instruction.Accounts()
	assert.Equal(t, treasury, accounts[6].PublicKey)
	assert.Equal(t, mint, accounts[7].PublicKey)
}

func TestBuildCloseReceiptIx(t *testing.T) {
	cfg := services.Devnet()
	intent := CloseReceiptIntent{Payer: testKey(1), PaymentID: [32]byte{7}}

	res, err := BuildCloseReceiptIx(cfg, intent)
	require.NoError(t, err)

	receipt, err := cfg.Deriver().Receipt(intent.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Key, res.ReceiptPDA)
	assert.Equal(t, []types.AccountMeta{
		types.Meta(intent.Payer, true, true),
		types.Meta(receipt.Key, false, true),
	}, res.Instruction.Accounts())
	assert.Equal(t, types.InstructionDiscriminator("closeReceipt"), res.Instruction.Discriminator())
}

func TestNewPaymentID(t *testing.T) {
	a, err := NewPaymentID()
	require.NoError(t, err)
	b, err := NewPaymentID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, [32]byte{}, a)
}
