// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

// defaultAddress is the TEST-NET-1 address synthesised for any binding
// the test author did not model explicitly. It is reserved for
// documentation and can never collide with a real deployment.
const defaultAddress = "192.0.2.0"

// Address is a single address carried by a bind address group.
type Address struct {
	Value    string
	CIDR     string
	Hostname string
}

// BindAddress groups the addresses attached to one network interface.
type BindAddress struct {
	InterfaceName string
	Addresses     []Address
}

// Network is the network attached to a named endpoint binding, as
// reported by network-get.
type Network struct {
	BindAddresses    []BindAddress
	IngressAddresses []string
	EgressSubnets    []string
}

// DefaultNetwork returns the network synthesised for a binding the test
// author did not model.
func DefaultNetwork() Network {
	return Network{
		BindAddresses: []BindAddress{{
			InterfaceName: "eth0",
			Addresses:     []Address{{Value: defaultAddress, CIDR: defaultAddress + "/24"}},
		}},
		IngressAddresses: []string{defaultAddress},
		EgressSubnets:    []string{defaultAddress + "/24"},
	}
}

// Copy returns a deep copy of the network.
func (n Network) Copy() Network {
	out := n
	if n.BindAddresses != nil {
		out.BindAddresses = make([]BindAddress, len(n.BindAddresses))
		for i, ba := range n.BindAddresses {
			cp := ba
			cp.Addresses = append([]Address(nil), ba.Addresses...)
			out.BindAddresses[i] = cp
		}
	}
	out.IngressAddresses = append([]string(nil), n.IngressAddresses...)
	out.EgressSubnets = append([]string(nil), n.EgressSubnets...)
	return out
}
