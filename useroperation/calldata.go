package useroperation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Selectors used in the synthetic calldata the Driver sends to sender and
// paymaster during the validation phase.
const (
	ValidateUserOpSelectorHex          = "0x19822f7c"
	ValidatePaymasterUserOpSelectorHex = "0x52b7512c"
)

var (
	validateUserOpSelector          = mustSelector(ValidateUserOpSelectorHex)
	validatePaymasterUserOpSelector = mustSelector(ValidatePaymasterUserOpSelectorHex)
)

func mustSelector(hex string) [4]byte {
	var out [4]byte
	b := common.FromHex(hex)
	copy(out[:], b)
	return out
}

// packedTuple mirrors the PackedUserOperation struct as the EntryPoint's
// Solidity ABI sees it.
type packedTuple struct {
	Sender             common.Address
	Nonce              *big.Int
	InitCode           []byte
	CallData           []byte
	AccountGasLimits   [32]byte
	PreVerificationGas *big.Int
	GasFees            [32]byte
	PaymasterAndData   []byte
	Signature          []byte
}

var packedUserOpAbiType = mustTupleType()

func mustTupleType() abi.Type {
	t, err := abi.NewType("tuple", "PackedUserOperation", []abi.ArgumentMarshaling{
		{Name: "sender", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "initCode", Type: "bytes"},
		{Name: "callData", Type: "bytes"},
		{Name: "accountGasLimits", Type: "bytes32"},
		{Name: "preVerificationGas", Type: "uint256"},
		{Name: "gasFees", Type: "bytes32"},
		{Name: "paymasterAndData", Type: "bytes"},
		{Name: "signature", Type: "bytes"},
	})
	if err != nil {
		panic("useroperation: invalid PackedUserOperation abi type: " + err.Error())
	}
	return t
}

// AbiEncode packs op into the Solidity-struct calldata layout, for use as
// the userOp parameter of the validateUserOp-style calls.
func (op *PackedUserOperation) AbiEncode() ([]byte, error) {
	args := abi.Arguments{{Type: packedUserOpAbiType, Name: "op"}}
	record := &packedTuple{
		Sender:             op.Sender,
		Nonce:              op.Nonce,
		InitCode:           op.InitCode,
		CallData:           op.CallData,
		AccountGasLimits:   to32(accountGasLimitsBytes(op)),
		PreVerificationGas: op.PreVerificationGas,
		GasFees:            to32(gasFeesBytes(op)),
		PaymasterAndData:   op.PaymasterAndData,
		Signature:          op.Signature,
	}
	return args.Pack(record)
}

func to32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

// EncodeValidateUserOpCalldata builds the calldata sent to the sender's
// validateUserOp during the account validation phase. When encodeFull is
// true it ABI-encodes the complete PackedUserOperation after the selector,
// userOpHash and missingAccountFunds; when false it stops at the selector
// plus the two zeroed words, a cheaper stub sufficient for accounts that
// never read the struct.
func (op *PackedUserOperation) EncodeValidateUserOpCalldata(userOpHash common.Hash, missingAccountFunds *big.Int, encodeFull bool) ([]byte, error) {
	data := append([]byte{}, validateUserOpSelector[:]...)
	data = append(data, userOpHash.Bytes()...)
	data = append(data, leftPad32(missingAccountFunds)...)
	if !encodeFull {
		return data, nil
	}
	encoded, err := op.AbiEncode()
	if err != nil {
		return nil, err
	}
	return append(data, encoded...), nil
}

// EncodeValidatePaymasterUserOpCalldata builds the calldata sent to the
// paymaster's validatePaymasterUserOp during the paymaster validation phase.
func (op *PackedUserOperation) EncodeValidatePaymasterUserOpCalldata(userOpHash common.Hash, maxCost *big.Int, encodeFull bool) ([]byte, error) {
	data := append([]byte{}, validatePaymasterUserOpSelector[:]...)
	data = append(data, userOpHash.Bytes()...)
	data = append(data, leftPad32(maxCost)...)
	if !encodeFull {
		return data, nil
	}
	encoded, err := op.AbiEncode()
	if err != nil {
		return nil, err
	}
	return append(data, encoded...), nil
}

func leftPad32(v *big.Int) []byte {
	if v == nil {
		v = big.NewInt(0)
	}
	b := v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
