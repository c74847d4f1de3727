// Package demotable is the fixture command index and encoder table this
// repo ships in place of the build-time generator the protocol spec treats
// as an external collaborator (SPEC_FULL §1, §4.7). It is deliberately
// small: just enough commands to give the dispatcher something real to
// dispatch and the test suite something concrete to assert on.
package demotable

import "github.com/librescoot/console-link/pkg/command"

// Inbound command ids.
const (
	CmdPing      byte = 0x01
	CmdSetPin    byte = 0x10
	CmdGetUptime byte = 0x11
)

// Outbound encoder ids.
const (
	EncAck        uint8 = 0 // unused by Index directly; ack/nak bypass the table
	EncPong       uint8 = 1
	EncUptime     uint8 = 2
	EncIsShutdown uint8 = 3
)

// PinState receives the most recent set_pin call, for tests and the demo
// daemon to observe.
type PinState struct {
	Pin   uint16
	Value byte
}

// Table bundles a fresh Index/Encoders pair plus the mutable demo state the
// handlers close over, so tests can build independent instances.
type Table struct {
	Index    command.Index
	Encoders command.Encoders

	// SendF is wired up by the caller once its command.Context exists (the
	// table has to exist first, to hand the Context its Index/Encoders), so
	// handlers that reply -- ping's pong -- have something to call. It is
	// nil until then, and a nil SendF just means "no reply sent".
	SendF func(encoderID uint8, args ...command.ArgValue) error

	LastPin     PinState
	PingCount   int
	UptimeTicks uint32
}

// New builds a Table whose handlers are closures over its own state, so
// multiple Tables never share demo state.
func New() *Table {
	t := &Table{}

	index := make(command.Index, int(CmdGetUptime)+1)
	index[CmdPing] = &command.ParserDescriptor{
		Name:       "ping",
		ParamTypes: nil,
		NumArgs:    0,
		Func: func(args []command.ArgValue) {
			t.PingCount++
			if t.SendF != nil {
				t.SendF(EncPong)
			}
		},
	}
	index[CmdSetPin] = &command.ParserDescriptor{
		Name:       "set_pin",
		ParamTypes: []command.ParamType{command.ParamU16, command.ParamByte},
		NumArgs:    2,
		Func: func(args []command.ArgValue) {
			t.LastPin = PinState{Pin: uint16(args[0].I32), Value: byte(args[1].I32)}
		},
	}
	index[CmdGetUptime] = &command.ParserDescriptor{
		Name:       "get_uptime",
		ParamTypes: nil,
		NumArgs:    0,
		Flags:      command.InShutdown,
		Func: func(args []command.ArgValue) {
			// get_uptime sends no reply of its own. The demo daemon
			// (cmd/console-link) pushes uptime messages with
			// SendF(EncUptime, ...) from a separate periodic scheduler
			// task.
		},
	}

	encoders := make(command.Encoders, EncIsShutdown+1)
	encoders[EncPong] = command.EncoderDescriptor{
		Name:    "pong",
		MsgID:   0x01,
		MaxSize: 1, // budget covers the msg_id byte; pong carries no params
	}
	encoders[EncUptime] = command.EncoderDescriptor{
		Name:       "uptime",
		MsgID:      0x02,
		ParamTypes: []command.ParamType{command.ParamU32},
		MaxSize:    5,
	}
	encoders[EncIsShutdown] = command.EncoderDescriptor{
		Name:       "is_shutdown",
		MsgID:      0x03,
		ParamTypes: []command.ParamType{command.ParamU16},
		MaxSize:    3,
	}

	t.Index = index
	t.Encoders = encoders
	return t
}

// ReasonIDs maps the shutdown reasons this repo's scheduler ever reports to
// the numeric static_string_id carried in an is_shutdown notification.
func ReasonIDs() map[string]uint16 {
	return map[string]uint16{
		command.ReasonInvalidCommand:     1,
		command.ReasonCommandParserError: 2,
		command.ReasonMessageEncodeError: 3,
	}
}
