package mock

import (
	"context"
	"testing"
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/stretchr/testify/require"
)

func TestOpenCloseCounting(t *testing.T) {
	f := NewFactory()

	sess, err := f.Open(context.Background(), session.Device{Name: "dev-01"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, f.Opened())
	require.Equal(t, 0, f.Closed())

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	require.Equal(t, 1, f.Closed(), "double close must count once")
}

func TestFailOpenReturnsTypedError(t *testing.T) {
	f := NewFactory()
	f.FailOpen("dev-01", session.Unreachable)

	_, err := f.Open(context.Background(), session.Device{Name: "dev-01"}, time.Second)
	require.Equal(t, session.Unreachable, session.KindOf(err))
	require.Equal(t, 0, f.Opened())
}

func TestExecuteEchoesCommand(t *testing.T) {
	f := NewFactory()

	sess, err := f.Open(context.Background(), session.Device{Name: "dev-01"}, time.Second)
	require.NoError(t, err)
	defer sess.Close()

	out, _, err := sess.Execute(context.Background(), "show version", time.Second)
	require.NoError(t, err)
	require.Contains(t, out, "show version")
}

func TestExecuteAfterCloseReportsClosed(t *testing.T) {
	f := NewFactory()

	sess, err := f.Open(context.Background(), session.Device{Name: "dev-01"}, time.Second)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, _, err = sess.Execute(context.Background(), "show version", time.Second)
	require.Equal(t, session.ClosedMidCommand, session.KindOf(err))
}
