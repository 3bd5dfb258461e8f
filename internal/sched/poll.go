package sched

import (
	"golang.org/x/sys/unix"

	"github.com/mint-lang/mint/internal/config"
)

// pollSockets is the scheduler's poll phase: build one poll-set from
// every socket in the table that wants to read or write or is
// listening, ask the OS which became ready with a small timeout, and
// translate the OS revents back into per-socket Events, clearing
// Blocked on each socket that can now proceed. It returns the fds whose
// waits completed (ready or timed out), in no particular order, so the
// scheduler can re-queue exactly those cursors.
func (t *SocketTable) pollSockets() ([]int, error) {
	fds := make([]unix.PollFd, 0, len(t.sockets))
	order := make([]int, 0, len(t.sockets))
	for fd, s := range t.sockets {
		var events int16
		if s.WantRead || s.Listening {
			events |= unix.POLLIN
		}
		if s.WantWrite {
			events |= unix.POLLOUT
		}
		if events == 0 {
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
		order = append(order, fd)
	}
	if len(fds) == 0 {
		return nil, nil
	}

	n, err := unix.Poll(fds, config.PollTimeoutMillis)
	if err != nil && err != unix.EINTR {
		return nil, err
	}

	var woken []int
	for i, pfd := range fds {
		s := t.sockets[order[i]]
		ready := n > 0 && t.applyRevents(s, pfd.Revents)
		if !ready && s.Blocked && s.remainingPolls >= 0 {
			s.remainingPolls--
			if s.remainingPolls < 0 {
				s.Events.TimedOut = true
				ready = true
			}
		}
		if ready && s.Blocked {
			s.Blocked = false
			woken = append(woken, s.Fd)
		}
	}
	return woken, nil
}

// applyRevents translates one socket's OS readiness bits into the five
// event categories and reports whether anything the socket was waiting
// on became ready. accept is read-readiness on a socket already marked
// listening; close folds in both hangup variants.
func (t *SocketTable) applyRevents(s *SocketState, revents int16) bool {
	s.Events = Events{}
	if revents == 0 {
		return false
	}
	if revents&unix.POLLIN != 0 {
		if s.Listening {
			s.Events.Accept = true
		} else {
			s.Events.Read = true
		}
	}
	if revents&unix.POLLOUT != 0 {
		s.Events.Write = true
	}
	if revents&unix.POLLERR != 0 || revents&unix.POLLNVAL != 0 {
		s.Events.Error = true
	}
	if revents&unix.POLLHUP != 0 || revents&unix.POLLRDHUP != 0 {
		s.Events.Closed = true
	}
	return s.Events.Read || s.Events.Write || s.Events.Accept ||
		s.Events.Error || s.Events.Closed
}

// SetNonBlocking flips the OS-level blocking mode of fd and records
// the script-visible mode in the table.
func (t *SocketTable) SetNonBlocking(fd int, nonblocking bool) error {
	if err := unix.SetNonblock(fd, nonblocking); err != nil {
		return err
	}
	if s, ok := t.sockets[fd]; ok {
		s.BlockingMode = !nonblocking
	}
	return nil
}
