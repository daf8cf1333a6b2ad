package validation

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aa-bundler/useropvalidator/reputation"
	"github.com/aa-bundler/useropvalidator/simulation"
	"github.com/aa-bundler/useropvalidator/useroperation"
)

func zeros(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "00"
	}
	return out
}

func rawOp(sender, initCode, paymasterAndData string) map[string]interface{} {
	return map[string]interface{}{
		"sender":             sender,
		"nonce":              "0x0",
		"initCode":           initCode,
		"callData":           "0x",
		"accountGasLimits":   "0x" + zeros(32),
		"preVerificationGas": "0x0",
		"gasFees":            "0x" + zeros(32),
		"paymasterAndData":   paymasterAndData,
		"signature":          "0x",
	}
}

func newDriver(t *testing.T) *Driver {
	t.Helper()
	env, err := simulation.NewEnvironment()
	require.NoError(t, err)
	return NewDriver(env, reputation.NewInMemoryStore())
}

func TestSimulateValidation_minimalEmptyOp(t *testing.T) {
	d := newDriver(t)
	op, err := useroperation.Parse(rawOp("0x0000000000000000000000000000000000000000", "0x", "0x"))
	require.NoError(t, err)

	result := d.SimulateValidation(op)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Violations)
	assert.True(t, result.IsValid)
}

func TestSimulateValidation_bannedOpcodeOnSender(t *testing.T) {
	d := newDriver(t)
	sender := common.HexToAddress("0x1234567890123456789012345678901234567890")
	d.Env.PutCode(sender, []byte{byte(vm.TIMESTAMP), byte(vm.STOP)})

	op, err := useroperation.Parse(rawOp(sender.Hex(), "0x", "0x"))
	require.NoError(t, err)

	result := d.SimulateValidation(op)
	require.NotEmpty(t, result.Violations)

	found := false
	for _, v := range result.Violations {
		if v.Kind == BannedOpcode && v.Entity == Sender {
			assert.Contains(t, v.Message, "TIMESTAMP")
			found = true
		}
	}
	assert.True(t, found)
	assert.False(t, result.IsValid)
}

func TestSimulateValidation_factoryParsedFromInitCode(t *testing.T) {
	d := newDriver(t)
	initCode := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1234567890"
	op, err := useroperation.Parse(rawOp("0x0000000000000000000000000000000000000000", initCode, "0x"))
	require.NoError(t, err)

	result := d.SimulateValidation(op)
	assert.Empty(t, result.Violations)
	assert.True(t, result.IsValid)
}

func TestSimulateValidation_paymasterBanBlocksExecution(t *testing.T) {
	d := newDriver(t)
	pm := common.HexToAddress("0x9999999999999999999999999999999999999999")
	for i := 0; i < reputation.DefaultBanThreshold; i++ {
		d.Reputation.Update(pm, false)
	}
	require.Equal(t, reputation.BANNED, d.Reputation.Status(pm))

	// INVALID would fail loudly if the EVM ever actually called into it.
	d.Env.PutCode(pm, []byte{byte(vm.INVALID)})

	paymasterAndData := "0x" + pm.Hex()[2:] + zeros(32)
	op, err := useroperation.Parse(rawOp("0x0000000000000000000000000000000000000000", "0x", paymasterAndData))
	require.NoError(t, err)

	result := d.SimulateValidation(op)
	assert.Empty(t, result.Violations)
	assert.False(t, result.IsValid)

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "is BANNED") {
			found = true
		}
	}
	assert.True(t, found)
}
