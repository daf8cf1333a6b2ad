// Package validation implements the EIP-7562 validation-phase simulator: the
// per-simulation Context, the EVM step Inspector, and the Simulation Driver
// that orchestrates the factory/sender/paymaster phases.
package validation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aa-bundler/useropvalidator/storagerules"
)

// EntityKind is the same enumeration storagerules.Entity defines; kept as an
// alias rather than a parallel type so Inspector can hand a Context's entity
// straight to storagerules.Check without translation.
type EntityKind = storagerules.Entity

const (
	Sender     = storagerules.Sender
	Factory    = storagerules.Factory
	Paymaster  = storagerules.Paymaster
	EntryPoint = storagerules.EntryPoint
)

// EntityName renders an EntityKind the way violation messages and logs do.
func EntityName(k EntityKind) string {
	switch k {
	case Sender:
		return "Sender"
	case Factory:
		return "Factory"
	case Paymaster:
		return "Paymaster"
	case EntryPoint:
		return "EntryPoint"
	default:
		return "Unknown"
	}
}

// ViolationKind identifies which EIP-7562 rule a Violation reports.
type ViolationKind int

const (
	BannedOpcode ViolationKind = iota
	IllegalStorageAccess
	EntityRestriction
)

func (k ViolationKind) String() string {
	switch k {
	case BannedOpcode:
		return "BannedOpcode"
	case IllegalStorageAccess:
		return "IllegalStorageAccess"
	case EntityRestriction:
		return "EntityRestriction"
	default:
		return "Unknown"
	}
}

// Violation is one recorded rule break. StorageOwner and Slot are only
// meaningful when Kind == IllegalStorageAccess.
type Violation struct {
	Kind           ViolationKind
	Entity         EntityKind
	ProgramCounter uint64
	Message        string
	StorageOwner   common.Address
	Slot           common.Hash
}

// ThrowSignal is what Context.RecordViolation returns when throwOnViolation
// is set: the sentinel telling the caller to abort the current phase.
type ThrowSignal struct {
	Violation Violation
}

func (t *ThrowSignal) Error() string {
	return fmt.Sprintf("validation: entity %s aborted on violation: %s", EntityName(t.Violation.Entity), t.Violation.Message)
}

// Context is the per-simulation mutable record owned by the Driver for the
// life of one SimulateValidation call. It is never shared across simulations
// and is not safe for concurrent use.
type Context struct {
	entity           EntityKind
	sender           common.Address
	entryPoint       common.Address
	factory          *common.Address
	paymaster        *common.Address
	violations       []Violation
	throwOnViolation bool
}

// NewContext builds a Context with entity initialized to Sender.
func NewContext(sender, entryPoint common.Address, factory, paymaster *common.Address, throwOnViolation bool) *Context {
	return &Context{
		entity:           Sender,
		sender:           sender,
		entryPoint:       entryPoint,
		factory:          factory,
		paymaster:        paymaster,
		throwOnViolation: throwOnViolation,
	}
}

// Entity returns the entity currently active.
func (c *Context) Entity() EntityKind {
	return c.entity
}

// SetEntity is the Context's single mutator, called by the Driver only at
// phase boundaries, never mid-instruction.
func (c *Context) SetEntity(k EntityKind) {
	c.entity = k
}

// Participants packages the addresses the Storage Rule Engine needs.
func (c *Context) Participants() storagerules.Participants {
	return storagerules.Participants{
		Sender:     c.sender,
		EntryPoint: c.entryPoint,
		Factory:    c.factory,
		Paymaster:  c.paymaster,
	}
}

// Factory returns the factory address, or nil if none was declared.
func (c *Context) Factory() *common.Address { return c.factory }

// PaymasterAddr returns the paymaster address, or nil if none was declared.
func (c *Context) PaymasterAddr() *common.Address { return c.paymaster }

// RecordViolation appends v to the ordered violation log (the slice only
// ever grows) and, in throw-mode, returns a *ThrowSignal the caller must
// treat as "stop executing the current phase."
func (c *Context) RecordViolation(v Violation) error {
	c.violations = append(c.violations, v)
	if c.throwOnViolation {
		return &ThrowSignal{Violation: v}
	}
	return nil
}

// Violations returns the violations recorded so far, in emission order.
func (c *Context) Violations() []Violation {
	return c.violations
}
