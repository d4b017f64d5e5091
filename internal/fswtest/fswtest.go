// Package fswtest collects small construction helpers shared by this
// module's tests: a loopback pair of Network Manager configs for two
// nodes talking over 127.0.0.1 and 127.0.0.2. Kept deliberately thin:
// there is no Data Vector builder here, since the element sets differ
// enough from package to package that each test file builds its own
// config inline.
package fswtest

import "github.com/nsp-rocket/fsw/netmgr"

// LoopbackNetworkConfigs returns a Config pair for nodeA (127.0.0.1) and
// nodeB (127.0.0.2) sharing one loopback channel on port, one with
// Me=nodeA and one with Me=nodeB.
func LoopbackNetworkConfigs(nodeA, nodeB netmgr.Node, port uint16) (a, b netmgr.Config) {
	base := netmgr.Config{
		NodeIPs: map[netmgr.Node]string{
			nodeA: "127.0.0.1",
			nodeB: "127.0.0.2",
		},
		Channels: []netmgr.ChannelConfig{
			{NodeA: nodeA, NodeB: nodeB, Port: port},
		},
	}
	a, b = base, base
	a.Me = nodeA
	b.Me = nodeB
	return a, b
}
