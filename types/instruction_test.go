package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionDiscriminator(t *testing.T) {
	tests := []struct {
		name string
		want Discriminator
	}{
		{"verifyAndSettle", Discriminator{211, 142, 20, 22, 134, 232, 64, 101}},
		{"createDelegation", Discriminator{177, 165, 93, 55, 227, 163, 61, 175}},
		{"addService", Discriminator{133, 207, 106, 32, 91, 111, 153, 30}},
		// snake_case 输入与 camelCase 结果一致
		{"verify_and_settle", Discriminator{211, 142, 20, 22, 134, 232, 64, 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstructionDiscriminator(tt.name))
		})
	}
}

func TestAccountDiscriminator(t *testing.T) {
	tests := []struct {
		name string
		want Discriminator
	}{
		{"agentIdentity", Discriminator{11, 149, 31, 27, 186, 76, 241, 72}},
		{"AgentIdentity", Discriminator{11, 149, 31, 27, 186, 76, 241, 72}},
		{"delegation", Discriminator{237, 90, 140, 159, 124, 255, 243, 80}},
		{"protocolConfig", Discriminator{207, 91, 250, 28, 152, 179, 215, 209}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccountDiscriminator(tt.name))
		})
	}
}

func TestEventDiscriminator(t *testing.T) {
	tests := []struct {
		name string
		want Discriminator
	}{
		{"agentRegistered", Discriminator{191, 78, 217, 54, 232, 100, 189, 85}},
		{"paymentSettled", Discriminator{158, 182, 152, 76, 105, 23, 232, 135}},
		{"delegationCreated", Discriminator{20, 93, 12, 34, 227, 63, 100, 136}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventDiscriminator(tt.name))
		})
	}
}

func TestInstruction_Immutable(t *testing.T) {
	accounts := []AccountMeta{Meta(SystemProgramID, true, true)}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	ix := NewInstruction(ProgramID, accounts, data)

	// 修改入参不影响指令
	accounts[0].IsSigner = false
	data[0] = 0xff
	assert.True(t, ix.Accounts()[0].IsSigner)
	assert.Equal(t, byte(1), ix.Data()[0])

	// 修改访问器返回值不影响指令
	ix.Accounts()[0].IsWritable = false
	ix.Data()[1] = 0xff
	assert.True(t, ix.Accounts()[0].IsWritable)
	assert.Equal(t, byte(2), ix.Data()[1])

	assert.Equal(t, Discriminator{1, 2, 3, 4, 5, 6, 7, 8}, ix.Discriminator())
	assert.Equal(t, []PublicKey{SystemProgramID}, ix.Signers())

	_, err := ix.Account(1)
	require.Error(t, err)
}

func TestOptionalMeta(t *testing.T) {
	t.Run("absent uses program id placeholder", func(t *testing.T) {
		meta := OptionalMeta(nil, ProgramID, true, true)
		assert.Equal(t, ProgramID, meta.PublicKey)
		assert.False(t, meta.IsSigner)
		assert.False(t, meta.IsWritable)
	})

	t.Run("present keeps flags", func(t *testing.T) {
		pk := SystemProgramID
		meta := OptionalMeta(&pk, ProgramID, false, true)
		assert.Equal(t, SystemProgramID, meta.PublicKey)
		assert.False(t, meta.IsSigner)
		assert.True(t, meta.IsWritable)
	})
}
