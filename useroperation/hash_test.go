package useroperation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_deterministicAndSensitiveToFields(t *testing.T) {
	op, err := Parse(minimalRaw())
	require.NoError(t, err)

	h1, err := op.Digest()
	require.NoError(t, err)
	h2, err := op.Digest()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	raw := minimalRaw()
	raw["callData"] = "0x01"
	other, err := Parse(raw)
	require.NoError(t, err)
	h3, err := other.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestBundleHash_ordersMatter(t *testing.T) {
	opA, err := Parse(minimalRaw())
	require.NoError(t, err)

	rawB := minimalRaw()
	rawB["callData"] = "0x01"
	opB, err := Parse(rawB)
	require.NoError(t, err)

	h1, err := BundleHash([]*PackedUserOperation{opA, opB})
	require.NoError(t, err)
	h2, err := BundleHash([]*PackedUserOperation{opB, opA})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestNonceKeyAndSequence(t *testing.T) {
	raw := minimalRaw()
	raw["nonce"] = "0x10000000000000005"
	op, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), op.NonceSequence())
	assert.Equal(t, "1", op.NonceKey().String())
}
