// Package config holds the typed constants that parameterize the
// validator: reputation thresholds, the default EntryPoint address, and the
// gas bound for the validation-phase sub-calls.
package config

import "github.com/ethereum/go-ethereum/common"

// DefaultEntryPoint is the canonical ERC-4337 v0.7 EntryPoint address.
var DefaultEntryPoint = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

// Reputation thresholds. These deliberately diverge from the EIP-7562
// recommended values; there is no decay.
const (
	ThrottleThreshold = 2
	BanThreshold      = 5
)

// MinPhaseGasLimit bounds each of the factory/sender/paymaster sub-calls.
const MinPhaseGasLimit uint64 = 1_000_000

// JSON-RPC error codes for user-operation rejection, as defined by the
// ERC-4337 RPC namespace.
const (
	ErrCodeRejectedByEntryPoint = -32500
	ErrCodeRejectedByPaymaster  = -32501
	ErrCodeBannedOpcode         = -32502
	ErrCodeInvalidStorage       = -32503
	ErrCodeThrottled            = -32504
	ErrCodeBanned               = -32505
	ErrCodeInvalidSignature     = -32506
	ErrCodeInvalidNonce         = -32507
)
