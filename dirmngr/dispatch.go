package dirmngr

import (
	"context"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// greeting is the line sent on connection accept, GnuPG-dirmngr style.
const greeting = "dirmngr-core ready for requests"

// Dispatcher holds the process-wide state the command loop needs to
// seed each connection's Controller, per spec §4.6's per-connection
// allocate/bind/loop/release lifecycle.
type Dispatcher struct {
	settings *Settings
	collab   Collaborators
}

// NewDispatcher wires a Dispatcher against settings and its external
// collaborators; both are shared, read-mostly, across every connection
// the process accepts (spec §5: caches provide their own serialization).
func NewDispatcher(settings *Settings, collab Collaborators) *Dispatcher {
	registerMetrics()
	return &Dispatcher{settings: settings, collab: collab}
}

// commandHandler is a static command table entry: the per-command logic
// invoked with the line's argument string already split off.
type commandHandler func(ctx context.Context, h *session, args string) error

// commandTable is the spec §4.6 step 3 case-insensitive command lookup.
// Populated by init() so every handler function can be defined in
// commands.go without import cycles.
var commandTable = map[string]commandHandler{}

func registerCommand(name string, fn commandHandler) {
	commandTable[name] = fn
}

// session binds one accepted connection's conn, Controller, and
// stop flag for the duration of HandleConn.
type session struct {
	c    *conn
	ctrl *Controller
	stop bool
}

// inquire implements the inquirer interface decision.go's functions
// depend on: it issues "INQUIRE <keyword>" and blocks for the peer's
// response, per spec §4.6 step 4 ("the dispatcher MUST NOT accept a new
// command while an inquiry is outstanding" — enforced simply by the
// single-threaded per-connection loop never reading the next command
// line until this call returns).
func (s *session) inquire(ctx context.Context, keyword string, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}
	if err := s.c.writeInquire(keyword); err != nil {
		return nil, err
	}
	result, err := s.c.readInquiryResponse(maxBytes)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// HandleConn runs the spec §4.6 request/response loop for one accepted
// connection until EOF or a fatal transport error. It never returns an
// error for ordinary protocol-level failures (those become ERR lines);
// it returns non-nil only when the transport itself is unusable.
func (d *Dispatcher) HandleConn(ctx context.Context, rw io.ReadWriter) error {
	c := newConn(rw)
	s := &session{c: c, ctrl: NewController(d.settings, d.collab)}

	if err := c.writeOK(greeting); err != nil {
		return err
	}

	for {
		line, err := c.readLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		cmdName, argStr := splitCommandLine(line)
		if s.stop {
			_ = c.writeErr(newError(KindTransport, "session is terminating"))
			continue
		}

		start := time.Now()
		outcome, handlerErr := d.dispatch(ctx, s, cmdName, argStr)
		recordCommand(strings.ToUpper(cmdName), outcome, time.Since(start))

		if handlerErr != nil {
			de := asError(handlerErr)
			if err := c.writeErr(de); err != nil {
				return err
			}
			continue
		}
		if err := c.writeOK(""); err != nil {
			return err
		}

		if s.stop {
			log.WithField("session", s.ctrl.ID).Info("dirmngr session requested process stop")
			return nil
		}
	}
}

// dispatch looks up cmdName and invokes its handler, translating an
// unrecognized command into KindUnknownCommand per spec §4.6 step 3.
// The handler's context carries a deadline derived from the session's
// effective timeout, so any network I/O a handler performs on the
// Controller's behalf (ksaction.go, collaborator lookups) is bounded by
// Controller.effectiveTimeout (the QuickTimeoutSecs setting while
// Controller.Quick is set, Controller.Timeout otherwise).
func (d *Dispatcher) dispatch(ctx context.Context, s *session, cmdName, argStr string) (outcome string, err error) {
	handler, ok := commandTable[strings.ToUpper(cmdName)]
	if !ok {
		return "unknown_command", newError(KindUnknownCommand, "unknown command: "+cmdName)
	}
	ctx, cancel := context.WithTimeout(ctx, s.ctrl.effectiveTimeout())
	defer cancel()
	if err := handler(ctx, s, argStr); err != nil {
		return "error", err
	}
	return "ok", nil
}

// splitCommandLine separates the leading whitespace-delimited command
// token from the remainder of the line, per spec §4.6 step 3.
func splitCommandLine(line string) (cmd, args string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i+1:], " \t")
}
