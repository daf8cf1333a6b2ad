// Package simulation provides the embedded EVM: an in-memory account/code/
// storage state that persists across a sequence of calls, plus a RunCall
// primitive that executes one message call with a tracer attached. It is
// built directly on go-ethereum's core/vm/runtime package, which exists
// precisely for driving the EVM outside of full block execution.
package simulation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/params"
)

// Environment owns the embedded EVM's state across a sequence of
// simulations: each simulation observes the state left by prior operations
// (deployments, storage writes). A forked chain state source would plug in
// here by pre-loading StateDB from a remote trie instead of starting empty.
type Environment struct {
	StateDB     *state.StateDB
	ChainConfig *params.ChainConfig
	Coinbase    common.Address
	BlockNumber *big.Int
	Time        uint64
	BaseFee     *big.Int
}

// NewEnvironment builds a fresh, empty in-memory simulation environment.
func NewEnvironment() (*Environment, error) {
	statedb, err := state.New(types.EmptyRootHash, state.NewDatabaseForTesting())
	if err != nil {
		return nil, err
	}
	return &Environment{
		StateDB:     statedb,
		ChainConfig: params.AllEthashProtocolChanges,
		Coinbase:    common.Address{},
		BlockNumber: big.NewInt(1),
		Time:        0,
		BaseFee:     big.NewInt(0),
	}, nil
}

// PutCode deploys code at addr.
func (e *Environment) PutCode(addr common.Address, code []byte) {
	e.StateDB.SetCode(addr, code)
}

// GetCode returns the code deployed at addr.
func (e *Environment) GetCode(addr common.Address) []byte {
	return e.StateDB.GetCode(addr)
}

// CallResult is the outcome of one EVM sub-call.
type CallResult struct {
	ReturnData []byte
	UsedGas    uint64
	Err        error
}

// Failed reports whether the call reverted or errored.
func (r *CallResult) Failed() bool {
	return r.Err != nil
}

// RunCall executes a single message call through the embedded EVM with the
// supplied tracer hooks attached (nil disables tracing). The Environment's
// StateDB is mutated by the call and that mutation is visible to the next
// RunCall.
func (e *Environment) RunCall(from, to common.Address, data []byte, gasLimit uint64, hooks *tracing.Hooks) *CallResult {
	cfg := &runtime.Config{
		Origin:      from,
		State:       e.StateDB,
		GasLimit:    gasLimit,
		GasPrice:    big.NewInt(0),
		Value:       big.NewInt(0),
		Difficulty:  big.NewInt(0),
		Time:        e.Time,
		Coinbase:    e.Coinbase,
		BlockNumber: e.BlockNumber,
		BaseFee:     e.BaseFee,
		ChainConfig: e.ChainConfig,
		EVMConfig:   vm.Config{Tracer: hooks},
	}
	ret, leftOverGas, err := runtime.Call(to, data, cfg)
	usedGas := gasLimit - leftOverGas
	return &CallResult{ReturnData: ret, UsedGas: usedGas, Err: err}
}
