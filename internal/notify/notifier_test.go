package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name string
	sent []string
	fail bool
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	if f.fail {
		return errors.New("unreachable")
	}
	f.sent = append(f.sent, title+": "+message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{"bond_redeemed"}, discard())

	require.NoError(t, n.Notify(ctx, "bond_created", "t", "m"))
	assert.Empty(t, s.sent)

	require.NoError(t, n.Notify(ctx, "bond_redeemed", "t", "m"))
	assert.Len(t, s.sent, 1)
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, discard())

	require.NoError(t, n.Notify(ctx, "anything", "t", "m"))
	assert.Len(t, s.sent, 1)
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{"bond_redeemed"}, discard())

	require.NoError(t, n.NotifyAll(ctx, "t", "m"))
	assert.Len(t, s.sent, 1)
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	bad := &fakeSender{name: "bad", fail: true}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.Notify(ctx, "bond_created", "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.sent, 1)
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, discard())
	assert.NoError(t, n.Notify(context.Background(), "bond_created", "t", "m"))
}
