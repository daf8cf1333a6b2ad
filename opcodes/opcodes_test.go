package opcodes

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	assert.True(t, IsBanned(vm.TIMESTAMP))
	assert.True(t, IsBanned(vm.GASPRICE))
	assert.False(t, IsBanned(vm.SLOAD))

	assert.True(t, IsCreation(vm.CREATE))
	assert.True(t, IsCreation(vm.CREATE2))
	assert.False(t, IsCreation(vm.CALL))

	assert.True(t, IsStorage(vm.SLOAD))
	assert.True(t, IsStorage(vm.SSTORE))
	assert.False(t, IsStorage(vm.MLOAD))

	assert.Equal(t, Neutral, ClassOf(vm.ADD))
}

func TestNameStability(t *testing.T) {
	assert.Equal(t, "TIMESTAMP", Name(vm.TIMESTAMP))
	assert.Equal(t, "GASPRICE", Name(vm.GASPRICE))
	assert.Equal(t, "CREATE", Name(vm.CREATE))
	assert.Equal(t, "0x01", Name(vm.ADD))
}
