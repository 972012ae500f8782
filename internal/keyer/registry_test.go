package keyer

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainWriter only implements io.Writer.
type plainWriter struct {
	buf []byte
}

func (w *plainWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// sliceAppender is an Appender whose dynamic type cannot be a map key.
type sliceAppender []string

func (s sliceAppender) AppendText(string) error { return nil }

func TestRegistry_RegisterLookupDeregister(t *testing.T) {
	r := NewRegistry(sched.NewVirtual(epoch))
	f := &textField{}

	id, err := r.Register(f, 15)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	s, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, id, s.ID())
	assert.Same(t, f, s.Target())
	assert.Equal(t, 15, s.WPM())
	assert.Equal(t, 80*time.Millisecond, s.Timing().Unit)

	byTarget, ok := r.LookupTarget(f)
	require.True(t, ok)
	assert.Same(t, s, byTarget)

	assert.True(t, r.Deregister(id))
	assert.False(t, r.Deregister(id), "second deregister must report failure")

	_, ok = r.Lookup(id)
	assert.False(t, ok)
	_, ok = r.LookupTarget(f)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistry_RegisterTwice(t *testing.T) {
	r := NewRegistry(sched.NewVirtual(epoch))
	f := &textField{}

	_, err := r.Register(f, 10)
	require.NoError(t, err)
	_, err = r.Register(f, 10)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UniqueIDs(t *testing.T) {
	r := NewRegistry(sched.NewVirtual(epoch))

	seen := make(map[SessionID]bool)
	for i := 0; i < 50; i++ {
		id, err := r.Register(&textField{}, 10)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, r.IDs(), 50)
}

func TestRegistry_RejectsNonComparableTarget(t *testing.T) {
	r := NewRegistry(sched.NewVirtual(epoch))

	_, err := r.Register(sliceAppender{}, 10)
	assert.ErrorIs(t, err, ErrUnsupportedTargetKind)

	_, ok := r.LookupTarget(sliceAppender{})
	assert.False(t, ok)
}

func TestRegistry_DeregisterCancelsTimers(t *testing.T) {
	v := sched.NewVirtual(epoch)
	r := NewRegistry(v)
	id, err := r.Register(&textField{}, 10)
	require.NoError(t, err)

	s, _ := r.Lookup(id)
	fired := 0
	s.letterTimer = v.Schedule(time.Second, func() { fired++ })
	s.spaceTimer = v.Schedule(2*time.Second, func() { fired++ })

	require.True(t, r.Deregister(id))
	v.Advance(time.Minute)
	assert.Zero(t, fired)
	assert.Zero(t, v.Pending())
}

func TestAppend_TargetKinds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Append(&buf, "cq"))
	assert.Equal(t, "cq", buf.String())

	w := &plainWriter{}
	require.NoError(t, Append(w, "de"))
	require.NoError(t, Append(w, " "))
	assert.Equal(t, "de ", string(w.buf))

	f := &textField{}
	require.NoError(t, Append(f, "k"))
	assert.Equal(t, "k", f.String())

	assert.ErrorIs(t, Append(struct{}{}, "x"), ErrUnsupportedTargetKind)
	assert.ErrorIs(t, Append(nil, "x"), ErrMissingTarget)
}

func TestKeyer_WriterTarget(t *testing.T) {
	k, v := newTestKeyer(t)
	w := &plainWriter{}
	_, err := k.Start(w, nil)
	require.NoError(t, err)

	send(t, k, v, w, "_._")
	v.Advance(letterGap10 + wordGap10)
	assert.Equal(t, "k ", string(w.buf))
}

var _ io.Writer = (*plainWriter)(nil)
