// Package storagerules implements the EIP-7562 storage access predicate:
// given which entity is executing and whose storage slot it is touching,
// decide whether the access is allowed.
package storagerules

import "github.com/ethereum/go-ethereum/common"

// Entity mirrors validation.EntityKind without importing it, so this package
// stays a leaf with no dependency on the Driver/Context/Inspector layer.
type Entity int

const (
	Sender Entity = iota
	Factory
	Paymaster
	EntryPoint
)

// Participants names the addresses relevant to one simulation run. Factory
// and Paymaster are pointers because their presence is conditional on
// initCode/paymasterAndData being at least 20 bytes long.
type Participants struct {
	Sender     common.Address
	EntryPoint common.Address
	Factory    *common.Address
	Paymaster  *common.Address
}

// Decision is the predicate's verdict.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Check applies the EIP-7562 access rules, first match wins:
//
//  1. entity == EntryPoint                       -> allowed
//  2. storageOwner == entryPoint                  -> allowed
//  3. entity == Sender    && owner == sender       -> allowed
//  4. entity == Factory   && owner in {factory, sender} -> allowed
//  5. entity == Paymaster && owner == paymaster    -> allowed
//  6. otherwise                                    -> denied
//
// Check never mutates its inputs; it is a pure predicate.
func Check(entity Entity, storageOwner common.Address, slot common.Hash, p Participants) Decision {
	if entity == EntryPoint {
		return allow()
	}
	if storageOwner == p.EntryPoint {
		return allow()
	}
	switch entity {
	case Sender:
		if storageOwner == p.Sender {
			return allow()
		}
	case Factory:
		if p.Factory != nil && (storageOwner == *p.Factory || storageOwner == p.Sender) {
			return allow()
		}
	case Paymaster:
		if p.Paymaster != nil && storageOwner == *p.Paymaster {
			return allow()
		}
	}
	return deny(deniedReason(entity, storageOwner, slot))
}

func deniedReason(entity Entity, storageOwner common.Address, slot common.Hash) string {
	return "entity " + entityName(entity) + " illegally accessed slot " + slot.Hex() +
		" owned by " + storageOwner.Hex()
}

func entityName(e Entity) string {
	switch e {
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
