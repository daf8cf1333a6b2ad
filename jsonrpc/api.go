// Package jsonrpc is the thin RPC-shaped surface over the validator core.
// Transport framing (HTTP, method dispatch, CORS) lives with the caller;
// this package only defines the methods an rpc.Server would register
// against an *API value.
package jsonrpc

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aa-bundler/useropvalidator/config"
	"github.com/aa-bundler/useropvalidator/useroperation"
	"github.com/aa-bundler/useropvalidator/validation"
)

// API exposes the structural validator and the Simulation Driver as
// JSON-RPC-shaped methods.
type API struct {
	Driver *validation.Driver
}

// NewAPI builds an API over driver.
func NewAPI(driver *validation.Driver) *API {
	return &API{Driver: driver}
}

// ValidateUserOperationResult is the JSON-RPC response shape for a
// validateUserOperation-style call.
type ValidateUserOperationResult struct {
	IsValid    bool                   `json:"isValid"`
	Errors     []string               `json:"errors,omitempty"`
	Violations []validation.Violation `json:"violations,omitempty"`
	GasUsed    string                 `json:"gasUsed,omitempty"`
}

// ValidateUserOperation accepts a loosely typed record, runs the structural
// validator, and only once that passes runs the simulation, surfacing the
// most specific -3250x code for whichever rejection reason applies.
func (a *API) ValidateUserOperation(raw map[string]interface{}) (*ValidateUserOperationResult, error) {
	structural := useroperation.ValidateStructure(raw)
	if !structural.IsValid {
		return nil, newError(config.ErrCodeInvalidSignature, strings.Join(structural.Errors, "; "))
	}

	op, err := useroperation.Parse(raw)
	if err != nil {
		return nil, newError(config.ErrCodeInvalidSignature, err.Error())
	}

	result := a.Driver.SimulateValidation(op)
	return toResult(result), classify(result)
}

// CallSimulateValidation exposes simulateValidation directly for callers
// that already hold a structurally valid PackedUserOperation, bypassing the
// JSON-record front end.
func (a *API) CallSimulateValidation(op *useroperation.PackedUserOperation) (*ValidateUserOperationResult, error) {
	result := a.Driver.SimulateValidation(op)
	return toResult(result), classify(result)
}

// CalculateBundleHash returns a stable identifier for a batch of operations.
// This validator never submits a bundle; the hash names a simulated batch.
func (a *API) CalculateBundleHash(ops []*useroperation.PackedUserOperation) (string, error) {
	hash, err := useroperation.BundleHash(ops)
	if err != nil {
		return "", newError(config.ErrCodeInvalidSignature, err.Error())
	}
	return hash.Hex(), nil
}

// EstimateVerificationGas exposes simulation.Environment.EstimateVerificationGas
// for the sender's validateUserOp sub-call. It is diagnostic only: the
// simulation itself always runs each phase with the fixed
// config.MinPhaseGasLimit bound, never this estimate.
func (a *API) EstimateVerificationGas(op *useroperation.PackedUserOperation, gasCap uint64) (uint64, error) {
	calldata, err := op.EncodeValidateUserOpCalldata(common.Hash{}, big.NewInt(0), a.Driver.EncodeFullCalldata)
	if err != nil {
		return 0, newError(config.ErrCodeInvalidSignature, err.Error())
	}
	gas, err := a.Driver.Env.EstimateVerificationGas(a.Driver.EntryPoint, op.Sender, calldata, gasCap)
	if err != nil {
		return 0, newError(config.ErrCodeRejectedByEntryPoint, err.Error())
	}
	return gas, nil
}

func toResult(r *validation.SimulationResult) *ValidateUserOperationResult {
	gasUsed := ""
	if r.GasUsed != nil {
		gasUsed = r.GasUsed.String()
	}
	return &ValidateUserOperationResult{
		IsValid:    r.IsValid,
		Errors:     r.Errors,
		Violations: r.Violations,
		GasUsed:    gasUsed,
	}
}

// classify maps a failed SimulationResult onto the most specific -3250x code
// available, preferring violations (closer to the root cause) over the
// generic phase errors collected alongside them.
func classify(r *validation.SimulationResult) error {
	if r.IsValid {
		return nil
	}
	for _, v := range r.Violations {
		switch v.Kind {
		case validation.BannedOpcode, validation.EntityRestriction:
			return newError(config.ErrCodeBannedOpcode, v.Message)
		case validation.IllegalStorageAccess:
			return newError(config.ErrCodeInvalidStorage, v.Message)
		}
	}
	for _, e := range r.Errors {
		switch {
		case strings.Contains(e, "is BANNED"):
			return newError(config.ErrCodeBanned, e)
		case strings.Contains(e, "is THROTTLED"):
			return newError(config.ErrCodeThrottled, e)
		case strings.Contains(e, "failed in "+validation.EntityName(validation.Paymaster)):
			return newError(config.ErrCodeRejectedByPaymaster, e)
		}
	}
	if len(r.Errors) > 0 {
		return newError(config.ErrCodeRejectedByEntryPoint, r.Errors[0])
	}
	return newError(config.ErrCodeRejectedByEntryPoint, "validation failed")
}
