package ferr

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	e := New("DataVector.Read", KindIncorrectType, "element e0 is u8 not u16")
	require.Equal(t, "fsw: DataVector.Read: element e0 is u8 not u16", e.Error())
}

func TestErrorMessageDefaultsToCode(t *testing.T) {
	e := New("NetworkManager.Send", KindInvalidNode, "")
	require.Equal(t, "fsw: NetworkManager.Send: invalid node", e.Error())
}

func TestErrorWithErrno(t *testing.T) {
	e := NewWithErrno("ThreadManager.createThread", KindFailedToCreateThread, syscall.EAGAIN)
	require.ErrorContains(t, e, "errno=")
	require.Equal(t, syscall.EAGAIN, e.Errno)
}

func TestIsMatchesByKindOnly(t *testing.T) {
	e := New("DataVector.Write", KindIncorrectType, "mismatch")
	require.True(t, Is(e, KindIncorrectType))
	require.False(t, Is(e, KindInvalidElem))
}

func TestWrapPreservesInnerKind(t *testing.T) {
	inner := New("socket.recv", KindFailedToRecvMsg, "boom")
	wrapped := Wrap("NetworkManager.recvBlock", KindFailedToRecvMsg, inner)
	require.Equal(t, KindFailedToRecvMsg, wrapped.Code)
	require.True(t, errors.Is(wrapped, inner))
}

func TestWrapNilIsNil(t *testing.T) {
	require.Nil(t, Wrap("op", KindInvalidConfig, nil))
}

func TestCodeOfPlainError(t *testing.T) {
	require.Equal(t, Kind(""), Code(errors.New("not ours")))
}
