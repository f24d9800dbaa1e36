package consoleprogress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakfield-labs/flowkit/errs"
)

func TestNewDeterminateBarAcceptsReceive(t *testing.T) {
	s := New(100)
	require.NotNil(t, s)
	pct := 42.0
	require.NotPanics(t, func() { s.Receive(errs.ProgressEvent{Percentage: &pct}) })
	s.Finish()
}

func TestNewIndeterminateBarAcceptsReceive(t *testing.T) {
	s := New(0)
	require.NotNil(t, s)
	require.NotPanics(t, func() { s.Receive(errs.ProgressEvent{RecordsRead: 10}) })
	s.Finish()
}

func TestNilSinkReceiveIsNoOp(t *testing.T) {
	var s *Sink
	require.NotPanics(t, func() { s.Receive(errs.ProgressEvent{RecordsRead: 1}) })
	require.NotPanics(t, s.Finish)
}
