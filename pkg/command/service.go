// Package command implements the protocol core: frame synchronization and
// ack/nak signalling (frame.go), the typed argument parser (parse.go), the
// outbound message encoder sendf (encode.go), and the per-tick command
// dispatcher (dispatch.go), all sharing the single Context defined here in
// place of the original's module-global next_sequence/sync_state.
package command

import (
	"github.com/librescoot/console-link/pkg/console"
	"github.com/librescoot/console-link/pkg/crc16"
)

// ShutdownHooks is the scheduler surface this package depends on: whether
// the system is currently shut down, why, and how to request a shutdown.
// pkg/scheduler implements this; command never imports pkg/scheduler, to
// keep the dependency pointed the other way (scheduler registers
// Context.RunTask as a task, not the reverse).
type ShutdownHooks interface {
	IsShutdown() bool
	ShutdownReason() string
	Shutdown(reason string)
}

// unknownReasonID is sent when ShutdownReason() returns a string the
// Context's reason table doesn't recognize.
const unknownReasonID uint16 = 0xffff

// Context owns the runtime state the original implementation kept as
// module-globals (next_sequence, sync_state) plus the collaborators needed
// to exercise them: the console ring buffer, the command index and encoder
// table, and the scheduler's shutdown hooks. A Context is only ever touched
// from the scheduler's single tick goroutine; SendF may additionally be
// called from other goroutines that want to emit a message (e.g. the
// bridge's outbound drain loop) -- see the SendF doc comment for the
// synchronization this requires.
type Context struct {
	in  console.Input
	out console.Output

	index    Index
	encoders Encoders
	hooks    ShutdownHooks
	crcMode  crc16.Mode

	nextSequence byte
	needSync     bool
	needValid    bool

	// isShutdownEncoderID, if >= 0, names the encoder used to notify the
	// peer that a command was skipped because the system is shut down
	// (protocol §4.4). reasonIDs maps a shutdown reason string to the
	// numeric static_string_id carried on the wire; an unrecognized reason
	// is sent as unknownReasonID.
	isShutdownEncoderID int
	reasonIDs           map[string]uint16

	// onCommand, if set, is invoked after every successfully dispatched
	// command, before its handler's side effects are assumed complete. It
	// exists for observers like pkg/bridge's audit trail; it must not
	// block or mutate the argument vector.
	onCommand func(cmdID byte, args []ArgValue)
}

// Option configures optional Context behavior at construction time.
type Option func(*Context)

// WithCRCAccelerated selects the table-driven CRC implementation in place of
// the bit-at-a-time reference one (the protocol's optimized_crc toggle).
func WithCRCAccelerated() Option {
	return func(c *Context) { c.crcMode = crc16.Accelerated }
}

// WithIsShutdownNotification configures the encoder id used to notify the
// peer of a skipped in-shutdown command, and the reason-string-to-wire-id
// table used to populate it.
func WithIsShutdownNotification(encoderID int, reasonIDs map[string]uint16) Option {
	return func(c *Context) {
		c.isShutdownEncoderID = encoderID
		c.reasonIDs = reasonIDs
	}
}

// WithCommandObserver installs fn to be called after each dispatched
// command.
func WithCommandObserver(fn func(cmdID byte, args []ArgValue)) Option {
	return func(c *Context) { c.onCommand = fn }
}

// NewContext builds a Context ready to run. nextSequence starts at destBit
// (DEST | seq=0), matching the protocol's initial runtime state.
func NewContext(in console.Input, out console.Output, idx Index, enc Encoders, hooks ShutdownHooks, opts ...Option) *Context {
	c := &Context{
		in:                  in,
		out:                 out,
		index:               idx,
		encoders:            enc,
		hooks:               hooks,
		nextSequence:        destBit,
		isShutdownEncoderID: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) reasonID(reason string) uint16 {
	if id, ok := c.reasonIDs[reason]; ok {
		return id
	}
	return unknownReasonID
}

// fatal reports a terminal protocol error through the scheduler's shutdown
// hook. If no hooks were configured (e.g. a unit test exercising parseArgs
// in isolation) it panics instead, since there is no other way to make the
// dispatcher stop.
func (c *Context) fatal(reason string) {
	if c.hooks == nil {
		panic("command: fatal error with no ShutdownHooks configured: " + reason)
	}
	c.hooks.Shutdown(reason)
}
