package validation

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aa-bundler/useropvalidator/simulation"
)

func TestInspector_createOnlyAllowedForFactory(t *testing.T) {
	env, err := simulation.NewEnvironment()
	require.NoError(t, err)

	target := common.HexToAddress("0x0000000000000000000000000000000000000aaa")
	// PUSH1 0 (size) PUSH1 0 (offset) PUSH1 0 (value) CREATE STOP
	code := []byte{
		byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
		byte(vm.PUSH1), 0x00,
		byte(vm.CREATE),
		byte(vm.STOP),
	}
	env.PutCode(target, code)

	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint := common.HexToAddress("0x2222222222222222222222222222222222222222")

	ctxFactory := NewContext(sender, entryPoint, &target, nil, false)
	ctxFactory.SetEntity(Factory)
	res := env.RunCall(entryPoint, target, nil, 200000, NewInspector(ctxFactory).Hooks())
	require.NoError(t, res.Err)
	for _, v := range ctxFactory.Violations() {
		assert.NotEqual(t, EntityRestriction, v.Kind)
	}

	ctxSender := NewContext(sender, entryPoint, &target, nil, false)
	ctxSender.SetEntity(Sender)
	res2 := env.RunCall(entryPoint, target, nil, 200000, NewInspector(ctxSender).Hooks())
	require.NoError(t, res2.Err)

	found := false
	for _, v := range ctxSender.Violations() {
		if v.Kind == EntityRestriction {
			found = true
		}
	}
	assert.True(t, found)
}

func TestInspector_senderStorageAccessToForeignSlot(t *testing.T) {
	env, err := simulation.NewEnvironment()
	require.NoError(t, err)

	foreign := common.HexToAddress("0x0000000000000000000000000000000000000bbb")
	// PUSH1 0 SLOAD STOP
	code := []byte{byte(vm.PUSH1), 0x00, byte(vm.SLOAD), byte(vm.STOP)}
	env.PutCode(foreign, code)

	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint := common.HexToAddress("0x2222222222222222222222222222222222222222")

	ctx := NewContext(sender, entryPoint, nil, nil, false)
	ctx.SetEntity(Sender)
	res := env.RunCall(entryPoint, foreign, nil, 200000, NewInspector(ctx).Hooks())
	require.NoError(t, res.Err)

	require.Len(t, ctx.Violations(), 1)
	v := ctx.Violations()[0]
	assert.Equal(t, IllegalStorageAccess, v.Kind)
	assert.Equal(t, foreign, v.StorageOwner)
	assert.Equal(t, common.Hash{}, v.Slot)
	assert.Equal(t, Sender, v.Entity)
}
