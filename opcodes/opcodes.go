// Package opcodes classifies EVM instructions for EIP-7562 validation-phase
// enforcement: which opcodes are unconditionally banned, which are subject to
// the entity-restricted creation rule, which route through the storage rule
// engine, and which are neutral.
package opcodes

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Class identifies which EIP-7562 enforcement bucket an opcode falls into.
type Class int

const (
	Neutral Class = iota
	Banned
	Creation
	Storage
)

// classification holds the fixed table, built once at package init from the
// banned/creation/storage sets named in EIP-7562.
var classification = buildTable()

func buildTable() map[vm.OpCode]Class {
	t := make(map[vm.OpCode]Class, 16)
	for _, op := range bannedOpcodes {
		t[op] = Banned
	}
	for _, op := range creationOpcodes {
		t[op] = Creation
	}
	for _, op := range storageOpcodes {
		t[op] = Storage
	}
	return t
}

var bannedOpcodes = []vm.OpCode{
	vm.GASPRICE,
	vm.BLOCKHASH,
	vm.COINBASE,
	vm.TIMESTAMP,
	vm.NUMBER,
	vm.DIFFICULTY, // aka PREVRANDAO post-Merge
	vm.GASLIMIT,
	vm.SELFBALANCE,
	vm.BASEFEE,
}

var creationOpcodes = []vm.OpCode{
	vm.CREATE,
	vm.CREATE2,
}

var storageOpcodes = []vm.OpCode{
	vm.SLOAD,
	vm.SSTORE,
}

// ClassOf returns the enforcement bucket for an opcode value.
func ClassOf(op vm.OpCode) Class {
	if c, ok := classification[op]; ok {
		return c
	}
	return Neutral
}

// IsBanned reports whether an occurrence of op during validation is always a
// violation, regardless of the active entity.
func IsBanned(op vm.OpCode) bool {
	return ClassOf(op) == Banned
}

// IsCreation reports whether op is CREATE/CREATE2 and thus subject to the
// Factory-only restriction.
func IsCreation(op vm.OpCode) bool {
	return ClassOf(op) == Creation
}

// IsStorage reports whether op is SLOAD/SSTORE and must be routed through the
// storage rule engine.
func IsStorage(op vm.OpCode) bool {
	return ClassOf(op) == Storage
}

// names holds display strings for the opcodes this package classifies;
// anything outside this set prints as "0xNN" rather than relying on the
// upstream opcode table, which carries entries this validator never needs.
var names = map[vm.OpCode]string{
	vm.GASPRICE:    "GASPRICE",
	vm.BLOCKHASH:   "BLOCKHASH",
	vm.COINBASE:    "COINBASE",
	vm.TIMESTAMP:   "TIMESTAMP",
	vm.NUMBER:      "NUMBER",
	vm.DIFFICULTY:  "PREVRANDAO",
	vm.GASLIMIT:    "GASLIMIT",
	vm.SELFBALANCE: "SELFBALANCE",
	vm.BASEFEE:     "BASEFEE",
	vm.CREATE:      "CREATE",
	vm.CREATE2:     "CREATE2",
	vm.SLOAD:       "SLOAD",
	vm.SSTORE:      "SSTORE",
}

// Name returns a stable, printable name for op, used to keep violation
// messages deterministic. Unknown opcodes print as "0xNN".
func Name(op vm.OpCode) string {
	if n, ok := names[op]; ok {
		return n
	}
	return fmt.Sprintf("0x%02x", byte(op))
}
