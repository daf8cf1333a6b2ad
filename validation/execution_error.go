package validation

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ExecutionError wraps an EVM sub-call failure (revert/out-of-gas/state-
// source error) from one validation phase with the entity that was active
// and, when the failure carries Solidity revert data, the decoded reason.
type ExecutionError struct {
	error
	entity       EntityKind
	revertReason []byte
}

// NewExecutionError builds an ExecutionError for a phase that ran against
// `entity` and failed with innerErr. revertReason is the raw return data of
// the failed call, if any; when it decodes as a standard Solidity
// Error(string) revert it is appended to the message.
func NewExecutionError(innerErr error, revertReason []byte, entity EntityKind) *ExecutionError {
	msg := fmt.Sprintf("validation phase failed in %s: %s", EntityName(entity), innerErr.Error())
	if reason, err := abi.UnpackRevert(revertReason); err == nil {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return &ExecutionError{
		error:        errors.New(msg),
		entity:       entity,
		revertReason: revertReason,
	}
}

// Entity returns which participant's sub-call failed.
func (e *ExecutionError) Entity() EntityKind { return e.entity }

// ErrorData returns the hex-encoded raw revert data, surfacing
// machine-readable detail alongside the -3250x rejection codes.
func (e *ExecutionError) ErrorData() interface{} {
	return hexutil.Encode(e.revertReason)
}
