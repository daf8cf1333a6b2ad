package useroperation

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Digest returns a keccak256 digest over the RLP encoding of op's ABI-encoded
// struct bytes. This
// is NOT the canonical EIP-712 userOpHash; it is a cheap, deterministic
// identifier useful for logging and for naming an operation across RPC
// calls.
func (op *PackedUserOperation) Digest() (common.Hash, error) {
	encoded, err := op.AbiEncode()
	if err != nil {
		return common.Hash{}, err
	}
	return rlpHash(encoded), nil
}

// BundleHash hashes the digests of a batch of operations together, giving a
// bundler front end a stable identifier for one simulated batch.
func BundleHash(ops []*PackedUserOperation) (common.Hash, error) {
	appended := make([]byte, 0, common.HashLength*len(ops))
	for _, op := range ops {
		h, err := op.Digest()
		if err != nil {
			return common.Hash{}, err
		}
		appended = append(appended, h.Bytes()...)
	}
	return rlpHash(appended), nil
}

func rlpHash(x interface{}) (h common.Hash) {
	hw := sha3.NewLegacyKeccak256()
	rlp.Encode(hw, x) //nolint:errcheck // hash.Hash.Write never errors
	hw.Sum(h[:0])
	return h
}
