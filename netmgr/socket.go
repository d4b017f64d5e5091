package netmgr

import (
	"golang.org/x/sys/unix"

	"github.com/nsp-rocket/fsw/ferr"
)

// channel is one live UDP socket bound to our side of a configured channel,
// plus the peer address it talks to.
type channel struct {
	peer    Node
	fd      int
	peerSA  unix.SockaddrInet4
	noopSA  unix.SockaddrInet4
}

func sockaddrFromIP(ip parsedIP, port uint16) unix.SockaddrInet4 {
	return unix.SockaddrInet4{Port: int(port), Addr: [4]byte(ip)}
}

func createBoundSocket(op string, localPort uint16) (int, *ferr.Error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return -1, ferr.Wrap(op, ferr.KindFailedToCreateSocket, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, ferr.Wrap(op, ferr.KindFailedToSetSocketOptions, err)
	}
	// SO_REUSEPORT lets a loopback test bind both ends of a channel to the
	// same port on the same address; in the field the two ends are always
	// on distinct hosts and this has no effect.
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		_ = unix.Close(fd)
		return -1, ferr.Wrap(op, ferr.KindFailedToSetSocketOptions, err)
	}

	sa := &unix.SockaddrInet4{Port: int(localPort)}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, ferr.Wrap(op, ferr.KindFailedToBindToSocket, err)
	}

	return fd, nil
}

func setNonblocking(op string, fd int, nonblocking bool) *ferr.Error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return ferr.Wrap(op, ferr.KindFailedToGetSocketFlags, err)
	}
	if nonblocking {
		flags |= unix.O_NONBLOCK
	} else {
		flags &^= unix.O_NONBLOCK
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags); err != nil {
		return ferr.Wrap(op, ferr.KindFailedToSetSocketFlags, err)
	}
	return nil
}
