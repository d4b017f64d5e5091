package netmgr

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/nsp-rocket/fsw/ferr"
	"github.com/nsp-rocket/fsw/internal/constants"
)

// NetworkManager owns one bound UDP socket per configured channel that
// touches Me, plus the peer address and no-op-flush address for each.
type NetworkManager struct {
	cfg      Config
	channels map[Node]*channel // keyed by the node on the OTHER end
}

// Create validates cfg, then opens and binds one socket per channel
// involving Me.
func Create(cfg Config) (*NetworkManager, *ferr.Error) {
	const op = "NetworkManager.Create"

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	nm := &NetworkManager{cfg: cfg, channels: make(map[Node]*channel)}

	for _, ch := range cfg.Channels {
		var peer Node
		switch cfg.Me {
		case ch.NodeA:
			peer = ch.NodeB
		case ch.NodeB:
			peer = ch.NodeA
		default:
			continue // channel does not involve us
		}

		peerIP, err := parseIPString(cfg.NodeIPs[peer])
		if err != nil {
			return nil, err
		}

		fd, ferr2 := createBoundSocket(op, ch.Port)
		if ferr2 != nil {
			return nil, ferr2
		}

		nm.channels[peer] = &channel{
			peer:   peer,
			fd:     fd,
			peerSA: sockaddrFromIP(peerIP, ch.Port),
			noopSA: sockaddrFromIP(peerIP, constants.NoopPort),
		}
	}

	return nm, nil
}

func (nm *NetworkManager) channelFor(op string, node Node) (*channel, *ferr.Error) {
	ch, ok := nm.channels[node]
	if !ok {
		return nil, ferr.New(op, ferr.KindInvalidNode, "no channel configured to node")
	}
	return ch, nil
}

// Send writes buf to node's channel, followed by the single-byte no-op
// flush datagram to NOOP_PORT. On success increments the tx-count element.
func (nm *NetworkManager) Send(node Node, buf []byte) *ferr.Error {
	const op = "NetworkManager.Send"

	if len(buf) == 0 {
		return ferr.New(op, ferr.KindEmptyBuffer, "send buffer is empty")
	}
	ch, err := nm.channelFor(op, node)
	if err != nil {
		return err
	}

	if sendErr := unix.Sendto(ch.fd, buf, 0, &ch.peerSA); sendErr != nil {
		return ferr.Wrap(op, ferr.KindFailedToSendMsg, sendErr)
	}

	// No-op flush: works around a platform bug where the last message of a
	// burst can otherwise linger in the peer's RX FIFO until the next frame.
	if sendErr := unix.Sendto(ch.fd, []byte{0xff}, 0, &ch.noopSA); sendErr != nil {
		return ferr.Wrap(op, ferr.KindFailedToSendMsg, sendErr)
	}

	if nm.cfg.DV != nil {
		if incErr := nm.cfg.DV.Increment(nm.cfg.TxCountElem); incErr != nil && incErr.Code != ferr.KindAlreadyMax {
			return incErr
		}
	}
	return nil
}

func (nm *NetworkManager) recv(op string, node Node, buf []byte) (int, *ferr.Error) {
	ch, err := nm.channelFor(op, node)
	if err != nil {
		return 0, err
	}

	n, _, recvErr := unix.Recvfrom(ch.fd, buf, 0)
	if recvErr != nil {
		if recvErr == unix.EAGAIN || recvErr == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, ferr.Wrap(op, ferr.KindFailedToRecvMsg, recvErr)
	}
	if n != len(buf) {
		return n, ferr.New(op, ferr.KindUnexpectedRecvSize, "received datagram did not match expected size")
	}

	if nm.cfg.DV != nil {
		if incErr := nm.cfg.DV.Increment(nm.cfg.RxCountElem); incErr != nil && incErr.Code != ferr.KindAlreadyMax {
			return n, incErr
		}
	}
	return n, nil
}

// RecvBlock sets node's socket blocking and blocks until exactly len(buf)
// bytes arrive.
func (nm *NetworkManager) RecvBlock(node Node, buf []byte) *ferr.Error {
	const op = "NetworkManager.RecvBlock"

	ch, err := nm.channelFor(op, node)
	if err != nil {
		return err
	}
	if err := setNonblocking(op, ch.fd, false); err != nil {
		return err
	}
	_, err = nm.recv(op, node, buf)
	return err
}

// RecvNonBlock sets node's socket non-blocking and returns got=false
// cleanly if no datagram is pending.
func (nm *NetworkManager) RecvNonBlock(node Node, buf []byte) (got bool, rerr *ferr.Error) {
	const op = "NetworkManager.RecvNonBlock"

	ch, err := nm.channelFor(op, node)
	if err != nil {
		return false, err
	}
	if err := setNonblocking(op, ch.fd, true); err != nil {
		return false, err
	}

	n, err := nm.recv(op, node, buf)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecvMult multiplexes reads across nodes using select, running until
// timeout elapses. Each channel may yield zero, one, or more datagrams;
// counts[i] records how many were read for nodes[i], and bufs[i] is
// overwritten with the most recently read datagram for that node.
func (nm *NetworkManager) RecvMult(
	timeout time.Duration, nodes []Node, bufs [][]byte, counts []int,
) *ferr.Error {
	const op = "NetworkManager.RecvMult"

	if timeout > constants.MaxSelectTimeout {
		return ferr.New(op, ferr.KindTimeoutTooLarge, "recv_mult timeout exceeds maximum")
	}
	if len(nodes) != len(bufs) || len(nodes) != len(counts) {
		return ferr.New(op, ferr.KindVectorsDiffSizes, "nodes, bufs and counts must be co-sized")
	}

	chans := make([]*channel, len(nodes))
	maxFd := 0
	for i, node := range nodes {
		ch, err := nm.channelFor(op, node)
		if err != nil {
			return err
		}
		if err := setNonblocking(op, ch.fd, true); err != nil {
			return err
		}
		chans[i] = ch
		if ch.fd > maxFd {
			maxFd = ch.fd
		}
		counts[i] = 0
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}

		var set unix.FdSet
		for _, ch := range chans {
			fdSet(&set, ch.fd)
		}
		tv := unix.NsecToTimeval(remaining.Nanoseconds())

		n, selErr := unix.Select(maxFd+1, &set, nil, nil, &tv)
		if selErr != nil {
			if selErr == unix.EINTR {
				continue
			}
			return ferr.Wrap(op, ferr.KindSelectFailed, selErr)
		}
		if n == 0 {
			return nil // timeout elapsed with nothing ready
		}

		for i, ch := range chans {
			if !fdIsSet(&set, ch.fd) {
				continue
			}
			read, err := nm.recv(op, nodes[i], bufs[i])
			if err != nil {
				return err
			}
			if read > 0 {
				counts[i]++
			}
		}
	}
}

// SendSyncReady sends the single-byte clock-sync ready marker to node. It
// reuses the same channel and counters as Send; clock sync has no payload
// beyond the one marker byte, so it is kept as a thin helper rather than a
// separate protocol.
func (nm *NetworkManager) SendSyncReady(node Node) *ferr.Error {
	return nm.Send(node, []byte{syncReadyByte})
}

const syncReadyByte = 0x00

// Close closes every socket this manager opened.
func (nm *NetworkManager) Close() *ferr.Error {
	var first *ferr.Error
	for _, ch := range nm.channels {
		if err := unix.Close(ch.fd); err != nil && first == nil {
			first = ferr.Wrap("NetworkManager.Close", ferr.KindFailedToSendMsg, err)
		}
	}
	return first
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
