package storagerules

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	factory := common.HexToAddress("0x2222222222222222222222222222222222222222")
	paymaster := common.HexToAddress("0x3333333333333333333333333333333333333333")
	entryPoint := common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	slot := common.Hash{}

	p := Participants{Sender: sender, EntryPoint: entryPoint, Factory: &factory, Paymaster: &paymaster}

	assert.True(t, Check(EntryPoint, other, slot, p).Allowed)
	assert.True(t, Check(Sender, entryPoint, slot, p).Allowed, "entrypoint storage always readable")
	assert.True(t, Check(Sender, sender, slot, p).Allowed)
	assert.False(t, Check(Sender, other, slot, p).Allowed)

	assert.True(t, Check(Factory, factory, slot, p).Allowed)
	assert.True(t, Check(Factory, sender, slot, p).Allowed)
	assert.False(t, Check(Factory, paymaster, slot, p).Allowed)

	assert.True(t, Check(Paymaster, paymaster, slot, p).Allowed)
	assert.False(t, Check(Paymaster, sender, slot, p).Allowed)

	denied := Check(Sender, other, slot, p)
	assert.Contains(t, denied.Reason, "Sender")
	assert.Contains(t, denied.Reason, other.Hex())
}

func TestCheck_noFactoryNoPaymaster(t *testing.T) {
	sender := common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint := common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	p := Participants{Sender: sender, EntryPoint: entryPoint}

	assert.False(t, Check(Factory, sender, common.Hash{}, p).Allowed)
	assert.False(t, Check(Paymaster, sender, common.Hash{}, p).Allowed)
}
