package command

import "github.com/librescoot/console-link/pkg/vlq"

// parseOutcome distinguishes "parsed normally" from "skip the rest of this
// frame". The skip outcome is returned for an in-shutdown, non-permitted
// command and after a fatal parser error, so the command's handler is never
// invoked in either case.
type parseOutcome int

const (
	parseOK parseOutcome = iota
	parseSkipFrame
)

// parseArgs walks payload according to desc.ParamTypes, populating an
// argument vector sized by desc.NumArgs, and returns the position just past
// the consumed bytes. A shutdown-skip sentinel short-circuits before any
// bytes are consumed. Any malformed descriptor or payload is fatal, per the
// protocol's error handling table.
func (c *Context) parseArgs(payload []byte, desc *ParserDescriptor) (rest []byte, args []ArgValue, outcome parseOutcome) {
	if c.hooks != nil && c.hooks.IsShutdown() && desc.Flags&InShutdown == 0 {
		c.sendIsShutdown()
		return payload, nil, parseSkipFrame
	}

	args = make([]ArgValue, desc.NumArgs)
	p := payload
	argIdx := 0
	for _, t := range desc.ParamTypes {
		switch t {
		case ParamU32, ParamI32, ParamU16, ParamI16, ParamByte:
			v, n, err := vlq.DecodeInt(p)
			if err != nil {
				c.fatal(ReasonCommandParserError)
				return nil, nil, parseSkipFrame
			}
			args[argIdx] = ArgValue{Kind: t, I32: v}
			argIdx++
			p = p[n:]
		case ParamBuffer:
			if len(p) < 1 {
				c.fatal(ReasonCommandParserError)
				return nil, nil, parseSkipFrame
			}
			length := int(p[0])
			p = p[1:]
			if length > len(p) {
				c.fatal(ReasonCommandParserError)
				return nil, nil, parseSkipFrame
			}
			args[argIdx] = ArgValue{Kind: ParamU32, I32: int32(length)}
			argIdx++
			args[argIdx] = ArgValue{Kind: t, Bytes: p[:length]}
			argIdx++
			p = p[length:]
		default:
			// Includes ParamString and ParamProgmemBuffer, which are
			// outbound-only and therefore never valid in an inbound
			// descriptor (protocol design note, SPEC_FULL §9).
			c.fatal(ReasonCommandParserError)
			return nil, nil, parseSkipFrame
		}
	}
	return p, args, parseOK
}

// sendIsShutdown emits the notification that a command was skipped because
// the system is shut down, carrying the numeric id for the current shutdown
// reason. It is a no-op if the notification encoder wasn't configured.
func (c *Context) sendIsShutdown() {
	if c.isShutdownEncoderID < 0 {
		return
	}
	id := c.reasonID(c.hooks.ShutdownReason())
	_ = c.SendF(uint8(c.isShutdownEncoderID), ArgValue{Kind: ParamU16, I32: int32(id)})
}
