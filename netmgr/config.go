// Package netmgr is the deterministic peer-to-peer UDP transport every node
// sends Data Vector regions over. One NetworkManager instance owns one
// socket per configured channel; there is no dynamic peer discovery and no
// retry logic above the single send/recv primitives. Reliability above
// "exactly what arrived" is the State Machine's problem, not this one's.
//
// The node topology, channel model, config validation order, and the
// no-op-flush workaround follow the same shape throughout this module;
// transport primitives are built on golang.org/x/sys/unix, which the rest
// of this module already depends on for thread and scheduling control.
package netmgr

import (
	"strconv"
	"strings"

	"github.com/nsp-rocket/fsw/datavector"
	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/constants"
)

// Node identifies a participant in the flight network. The set of valid
// nodes is closed over a config's NodeIPs map; there is no global enum,
// since the number of device nodes (Device0..Devicek) varies by mission.
type Node string

// ChannelConfig describes one undirected UDP channel between two nodes.
type ChannelConfig struct {
	NodeA Node
	NodeB Node
	Port  uint16
}

// Config is the full, validated construction config for a NetworkManager.
type Config struct {
	// NodeIPs maps every participating node to its dotted-quad IPv4
	// address.
	NodeIPs map[Node]string

	Channels []ChannelConfig

	// Me is this process's own node identity.
	Me Node

	// DV, TxCountElem and RxCountElem are the Data Vector and the two u32
	// counter elements incremented on every successful send/recv.
	DV          *datavector.DataVector
	TxCountElem datavector.ElementID
	RxCountElem datavector.ElementID
}

// parsedIP is the four-octet decomposition of a validated dotted-quad
// address, kept instead of net.IP so validation failures distinguish
// NonNumericIP from InvalidIPSize from InvalidIPRegion rather than
// collapsing to net.ParseIP's single undifferentiated nil.
type parsedIP [4]byte

func parseIPString(s string) (parsedIP, *ferr.Error) {
	const op = "netmgr.parseIPString"

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return parsedIP{}, ferr.New(op, ferr.KindInvalidIPSize, "ip address must have four octets")
	}

	var out parsedIP
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return parsedIP{}, ferr.New(op, ferr.KindNonNumericIP, "ip octet is not numeric")
		}
		if n < 0 || n > 255 {
			return parsedIP{}, ferr.New(op, ferr.KindInvalidIPRegion, "ip octet out of range 0-255")
		}
		out[i] = byte(n)
	}
	return out, nil
}

func unorderedPairKey(a, b Node) string {
	if a < b {
		return string(a) + "|" + string(b)
	}
	return string(b) + "|" + string(a)
}

func validateConfig(cfg Config) *ferr.Error {
	const op = "NetworkManager.Create"

	if len(cfg.NodeIPs) == 0 {
		return ferr.New(op, ferr.KindEmptyNodeConfig, "config has no nodes")
	}
	if len(cfg.Channels) == 0 {
		return ferr.New(op, ferr.KindEmptyChannelConfig, "config has no channels")
	}

	seenIPs := make(map[parsedIP]Node, len(cfg.NodeIPs))
	for node, ipStr := range cfg.NodeIPs {
		ip, err := parseIPString(ipStr)
		if err != nil {
			return err
		}
		if other, dup := seenIPs[ip]; dup {
			return ferr.New(op, ferr.KindDuplicateIP,
				"nodes "+string(other)+" and "+string(node)+" share an ip address")
		}
		seenIPs[ip] = node
	}

	if _, ok := cfg.NodeIPs[cfg.Me]; !ok {
		return ferr.New(op, ferr.KindUndefinedMeNode, "me is not one of the configured nodes")
	}

	seenPairs := make(map[string]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if _, ok := cfg.NodeIPs[ch.NodeA]; !ok {
			return ferr.New(op, ferr.KindUndefinedNodeInChannel, "channel references undefined node")
		}
		if _, ok := cfg.NodeIPs[ch.NodeB]; !ok {
			return ferr.New(op, ferr.KindUndefinedNodeInChannel, "channel references undefined node")
		}
		if ch.Port < constants.MinPort || ch.Port > constants.MaxPort {
			return ferr.New(op, ferr.KindInvalidPort, "channel port outside reserved flight network range")
		}
		key := unorderedPairKey(ch.NodeA, ch.NodeB)
		if seenPairs[key] {
			return ferr.New(op, ferr.KindDuplicateChannel, "two channels share the same node pair")
		}
		seenPairs[key] = true
	}

	if cfg.DV != nil {
		for _, id := range []datavector.ElementID{cfg.TxCountElem, cfg.RxCountElem} {
			typ, terr := cfg.DV.TypeOf(id)
			if terr != nil {
				return ferr.New(op, ferr.KindInvalidElem, "counter element not configured in data vector")
			}
			if typ != datavector.TypeU32 {
				return ferr.New(op, ferr.KindIncorrectType, "counter element must be type u32")
			}
		}
	}

	return nil
}
