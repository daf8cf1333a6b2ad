package validation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/aa-bundler/useropvalidator/opcodes"
	"github.com/aa-bundler/useropvalidator/storagerules"
)

// Inspector adapts the embedded EVM's per-instruction event stream (the
// tracing.Hooks.OnOpcode callback go-ethereum's interpreter invokes between
// instructions) into the three EIP-7562 checks: banned opcode, creation
// restriction, storage rule. It borrows a Context for the life of one phase
// and never outlives it.
type Inspector struct {
	ctx     *Context
	aborted error
}

// NewInspector attaches to ctx. Construct one Inspector per phase; Context's
// entity may change between phases but the Inspector itself is cheap to
// rebuild, so the Driver makes a fresh one each time rather than resetting
// state on a shared instance.
func NewInspector(ctx *Context) *Inspector {
	return &Inspector{ctx: ctx}
}

// Hooks returns the tracing.Hooks value to install on the embedded EVM's
// vm.Config for one sub-call. The runtime package takes hooks per call
// rather than via a persistent register/unregister API, so "detaching" the
// Inspector is simply not passing these hooks into the next call. No cleanup
// handle is returned: Driver.runPhase passes the hooks into exactly one
// RunCall and keeps no reference to them afterwards.
func (i *Inspector) Hooks() *tracing.Hooks {
	return &tracing.Hooks{OnOpcode: i.onOpcode}
}

// Aborted reports the throw-mode signal recorded by a violation during this
// phase, if any.
func (i *Inspector) Aborted() error {
	return i.aborted
}

func (i *Inspector) onOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	if i.aborted != nil {
		return
	}
	opcode := vm.OpCode(op)
	entity := i.ctx.Entity()

	if opcodes.IsBanned(opcode) {
		i.record(Violation{
			Kind:           BannedOpcode,
			Entity:         entity,
			ProgramCounter: pc,
			Message:        fmt.Sprintf("banned opcode %s used while entity=%s", opcodes.Name(opcode), EntityName(entity)),
		})
		if i.aborted != nil {
			return
		}
	}

	if opcodes.IsCreation(opcode) && entity != Factory {
		i.record(Violation{
			Kind:           EntityRestriction,
			Entity:         entity,
			ProgramCounter: pc,
			Message:        fmt.Sprintf("opcode %s is only permitted for Factory, used while entity=%s", opcodes.Name(opcode), EntityName(entity)),
		})
		if i.aborted != nil {
			return
		}
	}

	if opcodes.IsStorage(opcode) {
		stack := scope.StackData()
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		slot := common.Hash(top.Bytes32())
		owner := scope.Address()
		decision := storagerules.Check(storagerules.Entity(entity), owner, slot, i.ctx.Participants())
		if !decision.Allowed {
			i.record(Violation{
				Kind:           IllegalStorageAccess,
				Entity:         entity,
				ProgramCounter: pc,
				Message:        decision.Reason,
				StorageOwner:   owner,
				Slot:           slot,
			})
		}
	}
}

func (i *Inspector) record(v Violation) {
	if err := i.ctx.RecordViolation(v); err != nil {
		i.aborted = err
	}
}
