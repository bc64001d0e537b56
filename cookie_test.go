package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqBefore(t *testing.T) {
	assert.True(t, seqBefore(1, 2))
	assert.False(t, seqBefore(2, 2))
	assert.False(t, seqBefore(3, 2))
	assert.True(t, seqBefore(0xfffe, 1), "across the wrap")
	assert.False(t, seqBefore(1, 0xfffe))

	assert.Equal(t, 0, seqDistance(7, 7))
	assert.Equal(t, 3, seqDistance(0xffff, 2))
}

func TestPendingTable(t *testing.T) {
	table := newPendingTable()
	assert.Nil(t, table.oldest())

	void1 := &Cookie{Sequence: 0xfffe, checked: true}
	reply := &Cookie{Sequence: 0xffff, reply: &GetInputFocusReply{}}
	void2 := &Cookie{Sequence: 1, checked: true}
	for _, ck := range []*Cookie{void1, reply, void2} {
		require.NoError(t, table.add(ck))
	}
	assert.Error(t, table.add(&Cookie{Sequence: 1}), "sequence in use")
	assert.Equal(t, 3, table.len())
	assert.Equal(t, void1, table.oldest())

	// A reply for 0xffff settles the void request issued before it.
	succeeded, skipped := table.retireBefore(0xffff)
	assert.Equal(t, []*Cookie{void1}, succeeded)
	assert.Empty(t, skipped)
	assert.Equal(t, cookieReplied, void1.state)
	assert.Equal(t, reply, table.lookup(0xffff))

	table.remove(0xffff)
	assert.Equal(t, void2, table.oldest())

	// An answer to a later request leaves nothing pending before it.
	require.NoError(t, table.add(&Cookie{Sequence: 2, reply: &GetInputFocusReply{}}))
	succeeded, skipped = table.retireBefore(3)
	assert.Equal(t, []*Cookie{void2}, succeeded)
	require.Len(t, skipped, 1)
	assert.Equal(t, uint16(2), skipped[0].Sequence)
	assert.Equal(t, 0, table.len())
	assert.Nil(t, table.oldest())
}

func TestCookieConsume(t *testing.T) {
	ck := &Cookie{Sequence: 9, reply: &InternAtomReply{Atom: 42}}
	ck.resolve(nil)
	rep, err := ck.Wait()
	require.NoError(t, err)
	assert.Equal(t, Atom(42), rep.(*InternAtomReply).Atom)
	assert.Equal(t, cookieConsumed, ck.state)

	perr := &ProtocolError{Code: BadWindow}
	ck = &Cookie{Sequence: 10, checked: true}
	ck.resolve(perr)
	assert.Equal(t, perr, ck.Check())

	failed := failedCookie(ErrClosed)
	assert.Equal(t, ErrClosed, failed.Check())
}
