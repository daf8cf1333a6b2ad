package simulation

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

// EstimateVerificationGas binary-searches the smallest gas limit at or below
// gasCap for which a call to `to` with `data` from `from` succeeds against
// the Environment's current state. The Driver does not call this itself; it
// exists for callers that want a tighter verificationGasLimit than the
// generous fixed bound each phase runs with.
//
// When gasCap exceeds params.TxGas the search starts just below TxGas, so the
// result is never less than TxGas even for a call that needs less gas.
//
// The search runs against a throwaway snapshot of StateDB so that repeated
// probing does not leave partial state mutations from failed attempts
// visible to the caller's next real RunCall.
func (e *Environment) EstimateVerificationGas(from, to common.Address, data []byte, gasCap uint64) (uint64, error) {
	if gasCap == 0 {
		gasCap = params.TxGas
	}

	succeeds := func(gasLimit uint64) bool {
		snapshot := e.StateDB.Snapshot()
		res := e.probeCall(from, to, data, gasLimit)
		e.StateDB.RevertToSnapshot(snapshot)
		return res.Err == nil
	}

	var lo uint64
	if gasCap > params.TxGas {
		lo = params.TxGas - 1
	}
	hi := gasCap

	if !succeeds(hi) {
		return 0, fmt.Errorf("gas required exceeds allowance (%d)", hi)
	}

	// Most calls don't need anywhere near the full cap; bisect favoring the
	// low side so cheap calls converge in a handful of probes.
	for lo+1 < hi {
		mid := (hi + lo) / 2
		if mid > lo*2 && lo > 0 {
			mid = lo * 2
		}
		if succeeds(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}

	log.Debug("estimated validation-phase sub-call gas", "to", to, "gas", hi)
	return hi, nil
}

// probeCall runs one untraced, throwaway call purely to observe success or
// failure at a candidate gas limit; it never installs the Inspector, since
// estimation itself is not part of the rule-enforcement surface.
func (e *Environment) probeCall(from, to common.Address, data []byte, gasLimit uint64) *CallResult {
	return e.RunCall(from, to, data, gasLimit, nil)
}
