package useroperation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalRaw() map[string]interface{} {
	return map[string]interface{}{
		"sender":             "0x0000000000000000000000000000000000000000",
		"nonce":              "0x0",
		"initCode":           "0x",
		"callData":           "0x",
		"accountGasLimits":   "0x" + repeat("00", 32),
		"preVerificationGas": "0x0",
		"gasFees":            "0x" + repeat("00", 32),
		"paymasterAndData":   "0x",
		"signature":          "0x",
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func TestValidateStructure_missingField(t *testing.T) {
	raw := minimalRaw()
	delete(raw, "signature")
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "signature")
}

func TestValidateStructure_badHex(t *testing.T) {
	raw := minimalRaw()
	raw["callData"] = "0xzz"
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
}

func TestValidateStructure_oddLength(t *testing.T) {
	raw := minimalRaw()
	raw["callData"] = "0xabc"
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
}

func TestValidateStructure_badSender(t *testing.T) {
	raw := minimalRaw()
	raw["sender"] = "0xnotanaddress"
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
}

func TestValidateStructure_wrongFixedWidth(t *testing.T) {
	raw := minimalRaw()
	raw["accountGasLimits"] = "0x00"
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
}

func TestValidateStructure_nonceOverflow(t *testing.T) {
	raw := minimalRaw()
	raw["nonce"] = "0x1" + repeat("00", 32)
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "256-bit range")
}

func TestValidateStructure_insufficientPreVerificationGas(t *testing.T) {
	raw := minimalRaw()
	raw["preVerificationGas"] = "0x1"
	res := ValidateStructure(raw)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "below the computed minimum")
}

func TestValidateStructure_ok(t *testing.T) {
	// The minimum depends on preVerificationGas's own encoded bytes, so
	// setting the field shifts the minimum; iterate to the fixed point.
	raw := minimalRaw()
	for i := 0; i < 3; i++ {
		op, err := Parse(raw)
		require.NoError(t, err)
		raw["preVerificationGas"] = "0x" + CalcPreVerificationGas(op).Text(16)
	}

	res := ValidateStructure(raw)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestFactoryAndPaymasterPresenceByLength(t *testing.T) {
	raw := minimalRaw()
	raw["initCode"] = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1234567890"
	raw["paymasterAndData"] = "0x" + repeat("00", 52)

	op, err := Parse(raw)
	require.NoError(t, err)

	factory := op.Factory()
	require.NotNil(t, factory)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", fmt.Sprintf("%x", factory.Bytes()))
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78, 0x90}, op.FactoryData())

	paymaster := op.Paymaster()
	require.NotNil(t, paymaster)
	assert.Equal(t, "0x0000000000000000000000000000000000000000", paymaster.Hex())
}

func TestFactoryAbsentWhenInitCodeEmpty(t *testing.T) {
	raw := minimalRaw()
	op, err := Parse(raw)
	require.NoError(t, err)
	assert.Nil(t, op.Factory())
	assert.Nil(t, op.Paymaster())
}

func TestAbiEncodeRoundTripsWithoutError(t *testing.T) {
	raw := minimalRaw()
	op, err := Parse(raw)
	require.NoError(t, err)
	encoded, err := op.AbiEncode()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}
