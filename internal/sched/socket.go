package sched

// Events records per-socket readiness as reported by the last poll
// phase, split into the categories stdlib wrappers test: plain read,
// write, accept (read-readiness on a listening socket), error, and
// close (hangup from the peer).
type Events struct {
	Read   bool
	Write  bool
	Accept bool
	Error  bool
	Closed bool

	// TimedOut is set instead of a readiness category when the socket's
	// wait expired before the OS reported anything; the owning cursor is
	// re-queued and its wrapper observes the timeout through this flag.
	TimedOut bool
}

// SocketState is one entry of the scheduler-owned socket table, keyed
// by OS handle. Stdlib wrappers mutate the intent fields; the poll
// phase mutates Events and clears Blocked.
type SocketState struct {
	Fd        int
	Listening bool
	// BlockingMode mirrors the script-visible blocking/non-blocking
	// configuration; a socket freshly produced by accept starts true.
	BlockingMode bool
	// Blocked marks that some cursor suspended on this socket since the
	// last poll phase.
	Blocked bool

	// WantRead/WantWrite record which readiness the blocked cursor is
	// waiting for; both may be set.
	WantRead  bool
	WantWrite bool

	// remainingPolls counts poll phases until the wait times out;
	// negative means no timeout.
	remainingPolls int

	Events Events
}

// SocketTable is the process-wide socket state table, owned by the
// scheduler and mutated only from scheduler context (stdlib wrappers
// run inside a cursor's step, which the scheduler serializes).
type SocketTable struct {
	sockets map[int]*SocketState
}

func NewSocketTable() *SocketTable {
	return &SocketTable{sockets: make(map[int]*SocketState)}
}

// Register adds fd with the given listening mode, replacing any stale
// entry from a previously closed socket that reused the handle.
func (t *SocketTable) Register(fd int, listening bool) *SocketState {
	s := &SocketState{Fd: fd, Listening: listening, BlockingMode: true, remainingPolls: -1}
	t.sockets[fd] = s
	return s
}

// Accepted records the fresh socket an accept produced: a new entry
// with BlockingMode=true, per the accept transition.
func (t *SocketTable) Accepted(fd int) *SocketState {
	return t.Register(fd, false)
}

func (t *SocketTable) Lookup(fd int) (*SocketState, bool) {
	s, ok := t.sockets[fd]
	return s, ok
}

// Remove drops fd's entry once the owning wrapper has closed the
// handle.
func (t *SocketTable) Remove(fd int) {
	delete(t.sockets, fd)
}

// Block marks fd as having a cursor suspended on it, waiting for the
// given readiness. timeoutPolls bounds how many poll phases the wait
// may span; negative waits indefinitely.
func (t *SocketTable) Block(fd int, wantRead, wantWrite bool, timeoutPolls int) {
	s, ok := t.sockets[fd]
	if !ok {
		s = t.Register(fd, false)
	}
	s.Blocked = true
	s.WantRead = wantRead
	s.WantWrite = wantWrite
	s.remainingPolls = timeoutPolls
	s.Events = Events{}
}

// anyBlocked reports whether the last round left at least one socket
// with a suspended cursor, i.e. whether a poll phase is needed at all.
func (t *SocketTable) anyBlocked() bool {
	for _, s := range t.sockets {
		if s.Blocked {
			return true
		}
	}
	return false
}
