package validation

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aa-bundler/useropvalidator/config"
	"github.com/aa-bundler/useropvalidator/reputation"
	"github.com/aa-bundler/useropvalidator/simulation"
	"github.com/aa-bundler/useropvalidator/useroperation"
)

// SimulationResult is the Driver's output. IsValid holds iff Errors and
// Violations are both empty.
type SimulationResult struct {
	IsValid    bool
	Errors     []string
	Violations []Violation
	GasUsed    *big.Int
}

// Driver orchestrates one simulation: it parses participants, pre-checks
// reputation, runs the factory/sender/paymaster phases with the Inspector
// attached, updates reputation, and assembles the result.
type Driver struct {
	Env                *simulation.Environment
	Reputation         reputation.Store
	EntryPoint         common.Address
	EncodeFullCalldata bool
}

// NewDriver builds a Driver using the default EntryPoint address and full
// ABI-encoded calldata for the validate calls.
func NewDriver(env *simulation.Environment, store reputation.Store) *Driver {
	return &Driver{
		Env:                env,
		Reputation:         store,
		EntryPoint:         config.DefaultEntryPoint,
		EncodeFullCalldata: true,
	}
}

// SimulateValidation runs the validation phase of op against the embedded
// EVM and reports every rule violation and execution error it produced. The
// operation must already have passed ValidateStructure.
func (d *Driver) SimulateValidation(op *useroperation.PackedUserOperation) *SimulationResult {
	result := &SimulationResult{GasUsed: big.NewInt(0)}

	// Step 1: parse participants from the packed fields.
	factory := op.Factory()
	paymaster := op.Paymaster()

	// Step 2: reputation pre-check. A banned or throttled entity skips
	// execution entirely: no EVM call is issued for any phase and no
	// violations can be recorded, but the post-update in step 5 still runs.
	blocked := d.checkBlocked(factory, "factory", result)
	blocked = d.checkBlocked(paymaster, "paymaster", result) || blocked

	// Step 3: build the Context (throwOnViolation = false: collect every
	// violation for diagnostics rather than stopping at the first).
	ctx := NewContext(op.Sender, d.EntryPoint, factory, paymaster, false)

	var totalGas uint64

	if !blocked {
		// Phase F (Factory).
		if factory != nil {
			ctx.SetEntity(Factory)
			res := d.runPhase(ctx, d.EntryPoint, *factory, op.FactoryData(), config.MinPhaseGasLimit)
			totalGas += res.UsedGas
			if res.Failed() {
				result.Errors = append(result.Errors, NewExecutionError(res.Err, res.ReturnData, Factory).Error())
			}
		}

		// Phase S (Sender) always runs.
		ctx.SetEntity(Sender)
		senderCalldata, err := op.EncodeValidateUserOpCalldata(common.Hash{}, big.NewInt(0), d.EncodeFullCalldata)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("encoding validateUserOp calldata: %s", err))
		} else {
			res := d.runPhase(ctx, d.EntryPoint, op.Sender, senderCalldata, config.MinPhaseGasLimit)
			totalGas += res.UsedGas
			if res.Failed() {
				result.Errors = append(result.Errors, NewExecutionError(res.Err, res.ReturnData, Sender).Error())
			}
		}

		// Phase P (Paymaster).
		if paymaster != nil {
			ctx.SetEntity(Paymaster)
			pmCalldata, err := op.EncodeValidatePaymasterUserOpCalldata(common.Hash{}, big.NewInt(0), d.EncodeFullCalldata)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("encoding validatePaymasterUserOp calldata: %s", err))
			} else {
				res := d.runPhase(ctx, d.EntryPoint, *paymaster, pmCalldata, config.MinPhaseGasLimit)
				totalGas += res.UsedGas
				if res.Failed() {
					result.Errors = append(result.Errors, NewExecutionError(res.Err, res.ReturnData, Paymaster).Error())
				}
			}
		}
	}

	// Step 5: detach (implicit, see Inspector.Hooks) and update reputation.
	// Only rule violations, never EVM errors/reverts, count against an
	// entity.
	if factory != nil {
		d.Reputation.Update(*factory, !hasViolationFor(ctx.Violations(), Factory))
	}
	if paymaster != nil {
		d.Reputation.Update(*paymaster, !hasViolationFor(ctx.Violations(), Paymaster))
	}

	// Step 6: assemble result.
	result.Violations = ctx.Violations()
	result.GasUsed = new(big.Int).SetUint64(totalGas)
	result.IsValid = len(result.Errors) == 0 && len(result.Violations) == 0
	return result
}

// runPhase mounts a fresh Inspector for one sub-call. Hooks are a per-call
// argument rather than a standing registration: once RunCall returns,
// nothing references the Inspector and the next phase starts clean.
func (d *Driver) runPhase(ctx *Context, from, to common.Address, data []byte, gasLimit uint64) *simulation.CallResult {
	inspector := NewInspector(ctx)
	res := d.Env.RunCall(from, to, data, gasLimit, inspector.Hooks())
	if res.Err == nil {
		if aborted := inspector.Aborted(); aborted != nil {
			res.Err = aborted
		}
	}
	return res
}

func (d *Driver) checkBlocked(addr *common.Address, role string, result *SimulationResult) bool {
	if addr == nil {
		return false
	}
	switch d.Reputation.Status(*addr) {
	case reputation.BANNED:
		result.Errors = append(result.Errors, fmt.Sprintf("%s %s is BANNED", role, addr.Hex()))
		return true
	case reputation.THROTTLED:
		result.Errors = append(result.Errors, fmt.Sprintf("%s %s is THROTTLED", role, addr.Hex()))
		return true
	default:
		return false
	}
}

func hasViolationFor(violations []Violation, entity EntityKind) bool {
	for _, v := range violations {
		if v.Entity == entity {
			return true
		}
	}
	return false
}
