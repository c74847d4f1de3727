package command

import (
	"github.com/librescoot/console-link/pkg/crc16"
	"github.com/librescoot/console-link/pkg/vlq"
)

// SendF encodes and transmits one outbound message, per the encoder
// identified by encoderID. args must match the descriptor's ParamTypes in
// order and kind; SendF does not itself validate that beyond the bounds
// checks below, mirroring the original's unchecked variadic contract (type
// safety comes from ArgValue being the only thing callers can construct,
// not from a runtime schema check here).
//
// Note on the size ceiling: the distilled protocol spec states "maxend =
// start+3+max_size", but the original firmware this protocol was
// distilled from computes its ceiling as start+2+max_size, *before*
// writing the message-id byte, which is what makes "reserve max_size+5
// bytes total" actually add up (header 2 + msg_id 1 + params up to
// max_size-1 + trailer 3 == max_size+5, not max_size+6). This
// implementation follows the original's arithmetic -- see DESIGN.md.
//
// SendF may be called from the scheduler's tick goroutine (handlers invoked
// by RunTask) or from another goroutine such as the bridge's outbound drain
// loop, provided the underlying console.Output tolerates concurrent
// Reserve/Commit the way console.Buffer does; SendF holds no lock of its
// own, since the protocol assumes a single in-flight encode at a time and
// Buffer.Reserve rejects re-entrant reservations.
func (c *Context) SendF(encoderID uint8, args ...ArgValue) error {
	if int(encoderID) >= len(c.encoders) {
		c.fatal(ReasonInvalidCommand)
		return nil
	}
	desc := c.encoders[encoderID]

	buf, ok := c.out.Reserve(desc.MaxSize + minFrameLen)
	if !ok {
		return nil // output buffer full: silently drop
	}

	maxend := headerSize + desc.MaxSize
	p := headerSize
	buf[p] = desc.MsgID
	p++
	if p > maxend {
		c.fatal(ReasonMessageEncodeError)
		return nil
	}

	for i, t := range desc.ParamTypes {
		if p > maxend {
			c.fatal(ReasonMessageEncodeError)
			return nil
		}
		var arg ArgValue
		if i < len(args) {
			arg = args[i]
		}
		switch t {
		case ParamU32, ParamI32:
			p = appendVLQ(buf, p, maxend, arg.I32)
		case ParamU16, ParamI16, ParamByte:
			p = appendVLQ(buf, p, maxend, int32(uint32(arg.I32)&0xffff))
		case ParamString:
			lenPos := p
			p++
			n := 0
			for n < len(arg.Bytes) && arg.Bytes[n] != 0 && p < maxend {
				buf[p] = arg.Bytes[n]
				p++
				n++
			}
			buf[lenPos] = byte(n)
		case ParamBuffer, ParamProgmemBuffer:
			// progmem vs normal buffer copies identically on a hosted
			// target (protocol design note, SPEC_FULL §9) -- both carry a
			// plain []byte in ArgValue.Bytes.
			v := len(arg.Bytes)
			if v > maxend-p {
				v = maxend - p
			}
			buf[p] = byte(v)
			p++
			copy(buf[p:p+v], arg.Bytes[:v])
			p += v
		default:
			c.fatal(ReasonMessageEncodeError)
			return nil
		}
		if p > maxend {
			c.fatal(ReasonMessageEncodeError)
			return nil
		}
	}

	msglen := p + trailerSize
	buf[posLen] = byte(msglen)
	buf[posSeq] = c.nextSequence
	crc := crc16.Compute(c.crcMode, buf[:p])
	buf[p] = byte(crc >> 8)
	buf[p+1] = byte(crc)
	buf[p+2] = syncByte
	c.out.Commit(msglen)
	return nil
}

// appendVLQ writes the VLQ encoding of v at buf[p:], returning the new
// cursor. If the encoding would run past maxend, it returns maxend+1 so the
// caller's overrun check fires without indexing past the encoding's actual
// write (appendVLQ never writes beyond len(buf), which Reserve guarantees
// is at least maxend+trailerSize).
func appendVLQ(buf []byte, p, maxend int, v int32) int {
	encoded := vlq.EncodeInt(v)
	if p+len(encoded) > maxend {
		return maxend + 1
	}
	copy(buf[p:], encoded)
	return p + len(encoded)
}
