package x11

import (
	"fmt"
)

type cookieState int

const (
	cookiePending cookieState = iota
	cookieReplied
	cookieFailed
	cookieConsumed
)

// Cookie is the token of one request. Requests that expect a reply, and
// checked requests without one, leave a Cookie in the connection's pending
// table until the server answers. Its outcome can be collected exactly once.
type Cookie struct {
	conn     *Conn
	Sequence uint16
	reply    Reply
	checked  bool
	state    cookieState
	err      error
}

// failedCookie carries an error from sending a request to whoever waits on it.
func failedCookie(err error) *Cookie {
	return &Cookie{state: cookieFailed, err: err}
}

func (ck *Cookie) resolve(err error) {
	if err != nil {
		ck.state = cookieFailed
		ck.err = err
		return
	}
	ck.state = cookieReplied
}

// consume hands out the outcome and retires the cookie.
func (ck *Cookie) consume() (Reply, error) {
	reply, err := ck.reply, ck.err
	ck.state = cookieConsumed
	ck.reply = nil
	ck.err = nil
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Wait blocks for the reply of the request and returns it.
func (ck *Cookie) Wait() (Reply, error) {
	if ck.conn == nil {
		return ck.consume()
	}
	return ck.conn.AwaitReply(ck)
}

// Check blocks until the server has processed a checked request without a
// reply and returns the error it caused, if any.
func (ck *Cookie) Check() error {
	if ck.conn == nil {
		_, err := ck.consume()
		return err
	}
	return ck.conn.check(ck)
}

// pendingTable maps sequence numbers to the cookies waiting on them. Cookies
// are kept in issue order too, since the server answers in that order.
type pendingTable struct {
	slots map[uint16]*Cookie
	order []*Cookie
}

func newPendingTable() *pendingTable {
	return &pendingTable{slots: make(map[uint16]*Cookie)}
}

func (t *pendingTable) add(ck *Cookie) error {
	if old, ok := t.slots[ck.Sequence]; ok && old != ck {
		return fmt.Errorf("sequence %d already pending", ck.Sequence)
	}
	t.slots[ck.Sequence] = ck
	t.order = append(t.order, ck)
	return nil
}

func (t *pendingTable) lookup(seq uint16) *Cookie {
	return t.slots[seq]
}

func (t *pendingTable) remove(seq uint16) {
	delete(t.slots, seq)
	t.trim()
}

// trim drops resolved cookies from the front of the issue order.
func (t *pendingTable) trim() {
	i := 0
	for i < len(t.order) && t.slots[t.order[i].Sequence] != t.order[i] {
		t.order[i] = nil
		i++
	}
	t.order = t.order[i:]
}

// oldest returns the earliest issued cookie still pending.
func (t *pendingTable) oldest() *Cookie {
	t.trim()
	if len(t.order) == 0 {
		return nil
	}
	return t.order[0]
}

func (t *pendingTable) len() int { return len(t.slots) }

// retireBefore is called when the server answers sequence seq. Checked
// requests issued earlier that are still pending got no error, so they
// succeeded; they are resolved and returned. Requests expecting a reply that
// are still pending can never be answered now and are returned as skipped.
func (t *pendingTable) retireBefore(seq uint16) (succeeded, skipped []*Cookie) {
	for {
		ck := t.oldest()
		if ck == nil || !seqBefore(ck.Sequence, seq) {
			return
		}
		delete(t.slots, ck.Sequence)
		if ck.reply != nil {
			skipped = append(skipped, ck)
			continue
		}
		ck.resolve(nil)
		succeeded = append(succeeded, ck)
	}
}
