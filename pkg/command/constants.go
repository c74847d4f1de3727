package command

// Wire-level constants, mirroring MESSAGE_MIN/MESSAGE_MAX/MESSAGE_DEST/
// MESSAGE_SYNC from the protocol this package implements.
const (
	minFrameLen = 5
	maxFrameLen = 64

	headerSize  = 2 // LEN, SEQ
	trailerSize = 3 // CRC(2) + SYNC(1)

	posLen = 0
	posSeq = 1

	seqMask = 0x0f
	destBit = 0x10
	syncByte = 0x7e
)

// ParamType is the wire-level type tag for one argument slot. The first five
// values occupy a single 32-bit argument-vector slot; Buffer and
// ProgmemBuffer occupy two (length, then data); String is outbound-only.
type ParamType uint8

const (
	ParamU32 ParamType = iota
	ParamI32
	ParamU16
	ParamI16
	ParamByte
	// ParamBuffer is valid both inbound and outbound; ParamProgmemBuffer is
	// outbound-only, and the inbound parser rejects it like any other
	// unrecognized tag. On a hosted target there is no separate
	// program-memory address space, so sendf copies both identically; the
	// tag is kept only for wire compatibility with a firmware peer that does
	// distinguish them.
	ParamBuffer
	ParamProgmemBuffer
	// ParamString is outbound-only: sendf emits a length-prefixed run of
	// bytes up to a NUL or the encoder's size ceiling. It is deliberately
	// absent from the inbound parser's switch (see parse.go) -- a
	// descriptor that declares an inbound string parameter is treated the
	// same as any other unrecognized tag.
	ParamString
)

// Flags is a bit set on a ParserDescriptor.
type Flags uint8

// InShutdown marks a command as safe to execute while the system is shut
// down. Every other command is skipped (with an is_shutdown notification
// sent instead) whenever the scheduler reports shutdown.
const InShutdown Flags = 1 << 0

// Reasons for fatal shutdown, used verbatim as the shutdown reason string.
const (
	ReasonInvalidCommand     = "Invalid command"
	ReasonCommandParserError = "Command parser error"
	ReasonMessageEncodeError = "Message encode error"
)
