package rcon

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State tracks the session through its lifecycle. Only Closed is terminal.
type State int

const (
	Unconnected State = iota
	Connected
	Authenticated
	Closed
)

// terminatorBody is the probe body sent after every command. The probe is a
// workaround, not a protocol guarantee: servers answer a client-sent
// RESPONSE_VALUE only after flushing every pending reply fragment, so its
// echo marks end-of-response. Some Minecraft mods answer the probe in
// unexpected ways; DisableTerminator falls back to time-bounded draining.
const terminatorBody = "TERM"

// authFailureID is the id servers place in AUTH_RESPONSE (and, on some
// implementations, command replies) to signal rejection.
const authFailureID = -1

// Default tunables, overridable per session before Dial.
const (
	DefaultCommandDelay    = 0
	DefaultReceiveDelay    = 10 * time.Millisecond
	DefaultSelectTimeout   = 500 * time.Millisecond
	DefaultPostSendDelay   = 10 * time.Millisecond
	DefaultMaxResponseWait = 5 * time.Second
)

// ErrInterrupted is returned from a blocking operation after a signal marked
// the session interrupted. It unwinds to the shutdown hook rather than being
// reported as a protocol failure.
var ErrInterrupted = errors.New("session interrupted")

// sentinel outcomes of recvPacket that the exec loop recovers from
var (
	errUndersize = errors.New("undersized packet")
	errOversize  = errors.New("oversized packet")
)

// Session is a single authenticated RCON connection. It owns the socket, the
// id allocator, and the tunable timing parameters. Sessions are strictly
// single-threaded: no operation may be invoked concurrently with another.
// The one exception is Interrupt, which only flips an atomic flag and closes
// the socket to unblock a pending read.
type Session struct {
	// Timing knobs, all defaulted by New.
	ReceiveDelay    time.Duration // pause between reads of a fragmented reply
	SelectTimeout   time.Duration // single readiness-probe window
	PostSendDelay   time.Duration // grace period between command and probe
	MaxResponseWait time.Duration // longest silence tolerated per command; reset by each packet

	// DisableTerminator skips the end-of-response probe and relies on
	// time-bounded draining instead (two consecutive silent probe windows).
	DisableTerminator bool

	// Out receives response fragments as they arrive. Defaults to io.Discard.
	Out io.Writer

	// Log receives engine diagnostics, tagged with the session id.
	Log *zap.SugaredLogger

	host string
	port string
	addr string
	id   string

	conn        net.Conn
	rd          *bufio.Reader
	ids         idAllocator
	state       State
	interrupted atomic.Bool
	closeOnce   sync.Once
	closeErr    error
}

// New prepares an unconnected session for the given target. The returned
// session logs nowhere until Log is replaced.
func New(host, port string) *Session {
	return &Session{
		ReceiveDelay:    DefaultReceiveDelay,
		SelectTimeout:   DefaultSelectTimeout,
		PostSendDelay:   DefaultPostSendDelay,
		MaxResponseWait: DefaultMaxResponseWait,
		Out:             io.Discard,
		Log:             zap.NewNop().Sugar(),
		host:            host,
		port:            port,
		addr:            net.JoinHostPort(host, port),
		id:              uuid.NewString(),
	}
}

// Addr returns the target as host:port for diagnostics.
func (s *Session) Addr() string { return s.addr }

// ID is the correlation id for this session, suitable for tagging log lines.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// ValidatePassword enforces the blank-password policy before any socket is
// opened.
func ValidatePassword(password string, allowBlank bool) error {
	if password == "" && !allowBlank {
		return newError(KindBadArgument, "", nil, "password cannot be blank")
	}
	return nil
}

// Dial resolves the target and connects. Legal only from Unconnected.
func (s *Session) Dial() error {
	if s.state != Unconnected {
		return newError(KindProtocolViolation, s.addr, nil, "dial in state %d", s.state)
	}

	conn, err := dialTarget(s.host, s.port)
	if err != nil {
		return err
	}

	s.conn = conn
	s.rd = bufio.NewReaderSize(conn, SizeMax+4)
	s.state = Connected
	s.Log.Debugw("connected", "addr", s.addr)
	return nil
}

// Authenticate performs the AUTH handshake. On success the session moves to
// Authenticated; on an id of -1 it is closed and AuthFailed is returned.
// Some servers emit an empty RESPONSE_VALUE ahead of the auth reply; one
// such packet is tolerated and discarded.
func (s *Session) Authenticate(password string) error {
	if err := ValidatePassword(password, true); err != nil {
		return err
	}
	if s.state != Connected {
		return newError(KindProtocolViolation, s.addr, nil, "authenticate in state %d", s.state)
	}

	pid, err := s.ids.next()
	if err != nil {
		return s.fail(newError(KindProtocolViolation, s.addr, err, "id allocation"))
	}

	if err = s.send(&Packet{ID: pid, Type: Auth, Body: []byte(password)}); err != nil {
		return s.fail(err)
	}

	p, err := s.recvAuthReply()
	if err != nil {
		return s.fail(err)
	}

	if p.Type == ResponseValue {
		// mirror packet some servers send before the real auth reply
		s.Log.Debugw("discarding pre-auth response packet", "id", p.ID)
		if p, err = s.recvAuthReply(); err != nil {
			return s.fail(err)
		}
	}

	switch {
	case p.Type != AuthResponse:
		return s.fail(newError(KindProtocolViolation, s.addr, nil, "unexpected packet type %d during auth", p.Type))
	case p.ID == pid:
		s.state = Authenticated
		s.Log.Debugw("authenticated", "addr", s.addr)
		return nil
	case p.ID == authFailureID:
		return s.fail(newError(KindAuthFailed, s.addr, nil, "authentication refused"))
	default:
		return s.fail(newError(KindProtocolViolation, s.addr, nil, "auth reply id %d does not match request id %d", p.ID, pid))
	}
}

// recvAuthReply waits for one packet within the response-wait budget.
func (s *Session) recvAuthReply() (*Packet, error) {
	var waited time.Duration
	for {
		if s.interrupted.Load() {
			return nil, ErrInterrupted
		}

		ok, err := waitReadable(s.conn, s.rd, s.SelectTimeout)
		if err != nil {
			return nil, s.classifyIO(err)
		}
		if !ok {
			if waited += s.SelectTimeout; waited >= s.MaxResponseWait {
				return nil, newError(KindResponseTimeout, s.addr, nil, "no auth reply within %s", s.MaxResponseWait)
			}
			continue
		}

		p, err := s.recvPacket()
		if errors.Is(err, errUndersize) {
			continue
		}
		if errors.Is(err, errOversize) {
			if err = drainConn(s.conn, s.rd, s.SelectTimeout, s.ReceiveDelay); err != nil {
				return nil, err
			}
			continue
		}
		return p, err
	}
}

// Exec runs one command round-trip, streaming reply fragments to Out as they
// arrive. Multi-packet responses are reassembled with the terminator probe:
// a RESPONSE_VALUE packet sent right after the command, whose echoed id
// marks the true end of the reply.
func (s *Session) Exec(command string) error {
	if s.state != Authenticated {
		return newError(KindProtocolViolation, s.addr, nil, "exec in state %d", s.state)
	}
	if s.interrupted.Load() {
		return ErrInterrupted
	}

	cmdID, err := s.ids.next()
	if err != nil {
		return s.fail(newError(KindProtocolViolation, s.addr, err, "id allocation"))
	}

	if err = s.send(&Packet{ID: cmdID, Type: ExecCommand, Body: []byte(command)}); err != nil {
		return s.fail(err)
	}

	// let the server start producing output before the probe lands
	time.Sleep(s.PostSendDelay)

	termID, err := s.ids.next()
	if err != nil {
		return s.fail(newError(KindProtocolViolation, s.addr, err, "id allocation"))
	}

	termSent := false
	if !s.DisableTerminator {
		if err = s.send(&Packet{ID: termID, Type: ResponseValue, Body: []byte(terminatorBody)}); err != nil {
			// fall back to time-bounded draining below
			s.Log.Warnw("terminator probe send failed", "error", err)
		} else {
			termSent = true
		}
	}

	var (
		waited time.Duration
		silent int
	)
	for {
		if s.interrupted.Load() {
			return ErrInterrupted
		}

		ok, err := waitReadable(s.conn, s.rd, s.SelectTimeout)
		if err != nil {
			return s.fail(s.classifyIO(err))
		}
		if !ok {
			if !termSent {
				// without a probe, two consecutive silent windows end the reply
				if silent++; silent >= 2 {
					return nil
				}
				continue
			}
			if waited += s.SelectTimeout; waited >= s.MaxResponseWait {
				return s.execTimeout()
			}
			continue
		}
		silent = 0
		waited = 0

		p, err := s.recvPacket()
		switch {
		case errors.Is(err, errUndersize):
			continue
		case errors.Is(err, errOversize):
			if err = drainConn(s.conn, s.rd, s.SelectTimeout, s.ReceiveDelay); err != nil {
				return s.fail(err)
			}
			continue
		case err != nil:
			return s.fail(err)
		}

		switch {
		case termSent && p.ID == termID:
			// response complete; clear anything trailing the echo. The
			// command already succeeded, so a drain failure only means the
			// next operation will find the connection gone.
			if err = drainConn(s.conn, s.rd, s.SelectTimeout, s.ReceiveDelay); err != nil {
				s.Log.Debugw("post-response drain", "error", err)
			}
			return nil
		case p.Type == ResponseValue && p.ID == cmdID:
			if _, err = s.Out.Write(p.Body); err != nil {
				return newError(KindIo, s.addr, err, "writing response fragment")
			}
		case p.ID == authFailureID:
			return newError(KindServerRejected, s.addr, nil, "server rejected command")
		default:
			s.Log.Debugw("spurious packet", "id", p.ID, "type", p.Type, "body_len", len(p.Body))
		}

		time.Sleep(s.ReceiveDelay)
	}
}

// execTimeout reports ResponseTimeout without tearing the session down:
// interactive callers keep the session alive afterwards.
func (s *Session) execTimeout() error {
	return newError(KindResponseTimeout, s.addr, nil, "no response within %s", s.MaxResponseWait)
}

// Interrupt marks the session interrupted and closes the socket so any
// blocking read returns. Safe to call from a signal handler goroutine.
func (s *Session) Interrupt() {
	s.interrupted.Store(true)
	s.Close() //nolint:errcheck // best-effort unblock
}

// Close shuts the session down. Idempotent: the underlying socket is closed
// exactly once no matter how many times Close is invoked, including before
// Dial.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state = Closed
		if s.conn != nil {
			s.closeErr = s.conn.Close()
			s.Log.Debugw("closed", "addr", s.addr)
		}
	})
	return s.closeErr
}

// fail closes the session and passes the error through. Used on every fatal
// engine path so no failure leaks the socket.
func (s *Session) fail(err error) error {
	s.Close() //nolint:errcheck // the triggering error wins
	return err
}

func (s *Session) send(p *Packet) error {
	buf, err := p.MarshalBinary()
	if err != nil {
		return newError(KindBadArgument, s.addr, err, "encoding packet")
	}
	if err = sendAll(s.conn, buf); err != nil {
		return s.classifyIO(err)
	}
	return nil
}

// recvPacket reads one frame off the wire. Undersized frames are consumed,
// warned about, and reported as errUndersize; oversized frames surface as
// errOversize after only the size prefix was consumed (the caller drains).
func (s *Session) recvPacket() (*Packet, error) {
	frame, size, err := readFrame(s.rd)
	if err != nil {
		return nil, s.classifyIO(err)
	}

	if size < 0 || size > SizeMax {
		s.Log.Warnw("received unexpectedly large packet size", "size", size)
		return nil, errOversize
	}
	if size < SizeMin {
		s.Log.Warnw("received unexpectedly small packet size", "size", size)
		return nil, errUndersize
	}

	p := new(Packet)
	if err = p.UnmarshalBinary(frame); err != nil {
		return nil, newError(KindMalformedFrame, s.addr, err, "decoding packet")
	}
	return p, nil
}

// classifyIO maps raw transport errors onto the session taxonomy.
func (s *Session) classifyIO(err error) error {
	if s.interrupted.Load() {
		return ErrInterrupted
	}

	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return newError(KindConnectionLost, s.addr, err, "connection lost")
	case errors.Is(err, net.ErrClosed):
		return newError(KindConnectionLost, s.addr, err, "connection closed")
	default:
		return newError(KindIo, s.addr, err, "socket error")
	}
}
