package command

// ArgValue is a tagged union populated positionally into the argument
// vector the parser builds and the caller-facing values sendf's variadic
// argument list accepts. It replaces the original's untyped C varargs with
// an explicit, boundary-checked enum, per the protocol's "variadic argument
// marshalling" design note.
type ArgValue struct {
	Kind ParamType

	// I32 holds the decoded/to-encode value for ParamU32, ParamI32,
	// ParamU16, ParamI16 and ParamByte. The parser stores the full decoded
	// 32-bit value without narrowing it to the declared width (that is the
	// handler's concern); SendF masks ParamU16, ParamI16 and ParamByte
	// values to their low 16 bits before encoding.
	I32 int32

	// Bytes holds the payload for ParamBuffer, ParamProgmemBuffer and
	// ParamString (NUL is not included; sendf stops at the first 0x00 byte
	// it finds, matching the original's nul-terminated string convention).
	Bytes []byte
}

// Handler is invoked once per decoded command with its populated argument
// vector, sized to the owning ParserDescriptor's NumArgs.
type Handler func(args []ArgValue)

// ParserDescriptor describes one inbound command: how many typed parameters
// to expect, how large an argument vector they expand into, which flags
// apply, and the handler to invoke. Descriptors are built once (by
// internal/demotable in this repo, by the build-time generator described in
// the protocol spec on the original target) and never mutated afterward.
type ParserDescriptor struct {
	Name       string
	ParamTypes []ParamType
	NumArgs    int
	Flags      Flags
	Func       Handler
}

// EncoderDescriptor describes one outbound message shape: its wire msg_id,
// its parameter types (which may include ParamString and ParamProgmemBuffer,
// unlike ParserDescriptor), and the maximum encoded payload size sendf
// reserves room for.
type EncoderDescriptor struct {
	Name       string
	MsgID      byte
	ParamTypes []ParamType
	MaxSize    int
}

// Index is indexed by inbound cmd-id; a nil entry means "no such command".
type Index []*ParserDescriptor

// Lookup returns the descriptor for cmdID, or nil if cmdID is out of range
// or unassigned.
func (idx Index) Lookup(cmdID byte) *ParserDescriptor {
	if int(cmdID) >= len(idx) {
		return nil
	}
	return idx[cmdID]
}

// Encoders is indexed by an internal encoder id (the "parserid" of the
// protocol spec), distinct from the wire msg_id carried in each encoded
// message.
type Encoders []EncoderDescriptor
