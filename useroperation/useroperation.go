// Package useroperation implements the ERC-4337 v0.7 PackedUserOperation data
// model: parsing from a loosely typed JSON-sourced record, structural
// validation, and the pre-verification-gas estimator.
package useroperation

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// fieldNames lists the nine PackedUserOperation fields, in the order the
// pre-verification-gas formula concatenates them.
var fieldNames = []string{
	"sender",
	"nonce",
	"initCode",
	"callData",
	"accountGasLimits",
	"preVerificationGas",
	"gasFees",
	"paymasterAndData",
	"signature",
}

// byteFieldNames are the fields carrying byte strings; they must be even-
// length 0x hex. Nonce and preVerificationGas are numeric and exempt.
var byteFieldNames = []string{
	"sender",
	"initCode",
	"callData",
	"accountGasLimits",
	"gasFees",
	"paymasterAndData",
	"signature",
}

var evenHexPattern = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)

// PackedUserOperation is the parsed, immutable form of a v0.7 user operation.
type PackedUserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
	PreVerificationGas   *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

// Factory returns the 20-byte factory address encoded at the head of
// initCode, if initCode is at least 20 bytes long. An all-zero factory
// address still counts as present: presence is defined by length, not value.
func (op *PackedUserOperation) Factory() *common.Address {
	if len(op.InitCode) < 20 {
		return nil
	}
	var addr common.Address
	copy(addr[:], op.InitCode[:20])
	return &addr
}

// FactoryData returns the bytes of initCode following the factory address.
func (op *PackedUserOperation) FactoryData() []byte {
	if len(op.InitCode) < 20 {
		return nil
	}
	return op.InitCode[20:]
}

// Paymaster returns the 20-byte paymaster address encoded at the head of
// paymasterAndData, if present, with the same length-defines-presence rule
// as Factory.
func (op *PackedUserOperation) Paymaster() *common.Address {
	if len(op.PaymasterAndData) < 20 {
		return nil
	}
	var addr common.Address
	copy(addr[:], op.PaymasterAndData[:20])
	return &addr
}

// PaymasterVerificationGasLimit parses bytes [20:36) of paymasterAndData.
func (op *PackedUserOperation) PaymasterVerificationGasLimit() *big.Int {
	if len(op.PaymasterAndData) < 36 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(op.PaymasterAndData[20:36])
}

// PaymasterPostOpGasLimit parses bytes [36:52) of paymasterAndData.
func (op *PackedUserOperation) PaymasterPostOpGasLimit() *big.Int {
	if len(op.PaymasterAndData) < 52 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(op.PaymasterAndData[36:52])
}

// PaymasterData returns the bytes of paymasterAndData following the fixed
// address + two gas-limit fields.
func (op *PackedUserOperation) PaymasterData() []byte {
	if len(op.PaymasterAndData) < 52 {
		return nil
	}
	return op.PaymasterAndData[52:]
}

// nonceSequenceBits is the width of the low, monotonic-sequence portion of a
// v0.7 nonce; the remaining high bits are the caller-chosen key that selects
// an independent sequence.
const nonceSequenceBits = 64

// NonceKey returns the high 192 bits of the packed nonce: the 2D nonce key
// that selects an independent sequence in the EntryPoint's nonce manager.
// This validator only parses the split, it does not implement the
// EntryPoint's nonce-space semantics.
func (op *PackedUserOperation) NonceKey() *big.Int {
	return new(big.Int).Rsh(op.Nonce, nonceSequenceBits)
}

// NonceSequence returns the low 64 bits of the packed nonce.
func (op *PackedUserOperation) NonceSequence() uint64 {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), nonceSequenceBits), big.NewInt(1))
	return new(big.Int).And(op.Nonce, mask).Uint64()
}

// StructuralResult is the outcome of ValidateStructure.
type StructuralResult struct {
	IsValid bool
	Errors  []string
}

func fail(errs ...string) StructuralResult {
	return StructuralResult{IsValid: false, Errors: errs}
}

// ValidateStructure accepts a loosely typed record, the shape a JSON file or
// RPC params array decodes into, and checks presence of all nine fields,
// hex well-formedness, the fixed-width packed fields, and that the declared
// preVerificationGas covers the computed minimum. It never panics on
// malformed input; every failure mode becomes a string in Errors.
func ValidateStructure(raw map[string]interface{}) StructuralResult {
	var errs []string

	for _, name := range fieldNames {
		if _, ok := raw[name]; !ok {
			errs = append(errs, fmt.Sprintf("missing field %q", name))
		}
	}
	if len(errs) > 0 {
		return fail(errs...)
	}

	for _, name := range byteFieldNames {
		s, ok := raw[name].(string)
		if !ok {
			errs = append(errs, fmt.Sprintf("field %q must be a hex string", name))
			continue
		}
		if !evenHexPattern.MatchString(s) {
			errs = append(errs, fmt.Sprintf("field %q is not well-formed 0x-prefixed hex", name))
			continue
		}
		if len(s)%2 != 0 {
			errs = append(errs, fmt.Sprintf("field %q has odd hex length", name))
			continue
		}
	}
	if len(errs) > 0 {
		return fail(errs...)
	}

	senderHex := raw["sender"].(string)
	if !common.IsHexAddress(senderHex) {
		errs = append(errs, fmt.Sprintf("sender %q does not parse as an address", senderHex))
	}

	if n := len(raw["accountGasLimits"].(string)); n != 66 {
		errs = append(errs, fmt.Sprintf("accountGasLimits must be exactly 32 bytes (66 hex chars), got %d", n))
	}
	if n := len(raw["gasFees"].(string)); n != 66 {
		errs = append(errs, fmt.Sprintf("gasFees must be exactly 32 bytes (66 hex chars), got %d", n))
	}
	if len(errs) > 0 {
		return fail(errs...)
	}

	op, err := Parse(raw)
	if err != nil {
		return fail(err.Error())
	}

	if _, overflow := uint256.FromBig(op.Nonce); overflow {
		errs = append(errs, "nonce exceeds the 256-bit range")
	}
	if _, overflow := uint256.FromBig(op.PreVerificationGas); overflow {
		errs = append(errs, "preVerificationGas exceeds the 256-bit range")
	}
	if len(errs) > 0 {
		return fail(errs...)
	}

	minimum := CalcPreVerificationGas(op)
	if op.PreVerificationGas.Cmp(minimum) < 0 {
		errs = append(errs, fmt.Sprintf(
			"preVerificationGas %s is below the computed minimum %s",
			op.PreVerificationGas.String(), minimum.String(),
		))
	}

	if len(errs) > 0 {
		return fail(errs...)
	}
	return StructuralResult{IsValid: true}
}

// Parse converts a loosely typed, already structurally-valid record into a
// PackedUserOperation. Callers should run ValidateStructure first; Parse
// itself only checks the fixed-width fields it must split.
func Parse(raw map[string]interface{}) (*PackedUserOperation, error) {
	sender, ok := raw["sender"].(string)
	if !ok || !common.IsHexAddress(sender) {
		return nil, errors.New("invalid sender")
	}

	nonce, err := parseIntField(raw["nonce"])
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %w", err)
	}
	preVerificationGas, err := parseIntField(raw["preVerificationGas"])
	if err != nil {
		return nil, fmt.Errorf("invalid preVerificationGas: %w", err)
	}

	initCode, err := hexutil.Decode(orZeroHex(raw["initCode"]))
	if err != nil {
		return nil, fmt.Errorf("invalid initCode: %w", err)
	}
	callData, err := hexutil.Decode(orZeroHex(raw["callData"]))
	if err != nil {
		return nil, fmt.Errorf("invalid callData: %w", err)
	}
	paymasterAndData, err := hexutil.Decode(orZeroHex(raw["paymasterAndData"]))
	if err != nil {
		return nil, fmt.Errorf("invalid paymasterAndData: %w", err)
	}
	signature, err := hexutil.Decode(orZeroHex(raw["signature"]))
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	accountGasLimits, err := hexutil.Decode(raw["accountGasLimits"].(string))
	if err != nil || len(accountGasLimits) != 32 {
		return nil, errors.New("accountGasLimits must decode to exactly 32 bytes")
	}
	gasFees, err := hexutil.Decode(raw["gasFees"].(string))
	if err != nil || len(gasFees) != 32 {
		return nil, errors.New("gasFees must decode to exactly 32 bytes")
	}

	return &PackedUserOperation{
		Sender:               common.HexToAddress(sender),
		Nonce:                nonce,
		InitCode:             initCode,
		CallData:             callData,
		VerificationGasLimit: new(big.Int).SetBytes(accountGasLimits[:16]),
		CallGasLimit:         new(big.Int).SetBytes(accountGasLimits[16:]),
		PreVerificationGas:   preVerificationGas,
		MaxPriorityFeePerGas: new(big.Int).SetBytes(gasFees[:16]),
		MaxFeePerGas:         new(big.Int).SetBytes(gasFees[16:]),
		PaymasterAndData:     paymasterAndData,
		Signature:            signature,
	}, nil
}

func orZeroHex(v interface{}) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return "0x"
	}
	return s
}

// parseIntField accepts either a JSON number, a decimal string, or a
// 0x-prefixed hex string. Nonce and preVerificationGas are numeric fields,
// not byte strings, so odd-length hex is fine here even though the byte
// fields require even length.
func parseIntField(v interface{}) (*big.Int, error) {
	switch t := v.(type) {
	case float64:
		return big.NewInt(int64(t)), nil
	case string:
		if len(t) > 1 && t[0:2] == "0x" {
			n, ok := new(big.Int).SetString(t[2:], 16)
			if !ok {
				return nil, fmt.Errorf("invalid hex integer %q", t)
			}
			return n, nil
		}
		n, ok := new(big.Int).SetString(t, 10)
		if !ok {
			return nil, fmt.Errorf("invalid decimal integer %q", t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported integer field type %T", v)
	}
}

// CalcPreVerificationGas computes the flat pre-verification floor:
// 21000 + 5000 + sum(byte == 0 ? 4 : 16) over the concatenated bytes of all
// nine fields. Integer fields are encoded as 32-byte big-endian words to
// match the calldata-shaped cost model the formula approximates.
func CalcPreVerificationGas(op *PackedUserOperation) *big.Int {
	var all []byte
	all = append(all, op.Sender.Bytes()...)
	all = append(all, math.PaddedBigBytes(op.Nonce, 32)...)
	all = append(all, op.InitCode...)
	all = append(all, op.CallData...)
	all = append(all, accountGasLimitsBytes(op)...)
	all = append(all, math.PaddedBigBytes(op.PreVerificationGas, 32)...)
	all = append(all, gasFeesBytes(op)...)
	all = append(all, op.PaymasterAndData...)
	all = append(all, op.Signature...)

	var zero, nonZero int64
	for _, b := range all {
		if b == 0 {
			zero++
		} else {
			nonZero++
		}
	}
	gas := big.NewInt(21000 + 5000)
	gas.Add(gas, big.NewInt(zero*4))
	gas.Add(gas, big.NewInt(nonZero*16))
	return gas
}

func accountGasLimitsBytes(op *PackedUserOperation) []byte {
	out := make([]byte, 32)
	copy(out[:16], math.PaddedBigBytes(op.VerificationGasLimit, 16))
	copy(out[16:], math.PaddedBigBytes(op.CallGasLimit, 16))
	return out
}

func gasFeesBytes(op *PackedUserOperation) []byte {
	out := make([]byte, 32)
	copy(out[:16], math.PaddedBigBytes(op.MaxPriorityFeePerGas, 16))
	copy(out[16:], math.PaddedBigBytes(op.MaxFeePerGas, 16))
	return out
}
