package command

import "github.com/librescoot/console-link/pkg/crc16"

// nextFrame implements one attempt at the frame layer's Normal/NEED_SYNC/
// NEED_VALID state machine (protocol §4.3). It either returns a complete,
// verified frame's bytes, LEN through the trailing sync byte (still
// buffered -- the caller pops them after dispatch), or nil if nothing is
// ready this tick. It never blocks: every path that returns nil either
// consumes some prefix of the inbound buffer, or leaves the buffer untouched
// because not enough bytes have arrived yet.
func (c *Context) nextFrame() []byte {
	if c.needSync {
		c.resync()
		return nil
	}

	buf := c.in.Peek()
	if len(buf) < minFrameLen {
		return nil
	}

	length := int(buf[posLen])
	if length < minFrameLen || length > maxFrameLen {
		c.errorPath(buf)
		return nil
	}
	seq := buf[posSeq]
	if seq&0xf0 != destBit {
		c.errorPath(buf)
		return nil
	}
	if len(buf) < length {
		return nil // wait for the rest of the frame
	}
	if buf[length-1] != syncByte {
		c.errorPath(buf)
		return nil
	}

	crcOffset := length - trailerSize // CRC covers [0, length-3), i.e. [0, 2+N)
	got := crc16.Compute(c.crcMode, buf[:crcOffset])
	want := uint16(buf[crcOffset])<<8 | uint16(buf[crcOffset+1])
	if got != want {
		c.errorPath(buf)
		return nil
	}

	c.needValid = false
	if seq != c.nextSequence {
		c.in.Pop(length)
		c.sendEmpty(c.nextSequence) // nak: repeat the sequence we still expect
		return nil
	}

	c.nextSequence = ((seq + 1) & seqMask) | destBit
	c.sendEmpty(c.nextSequence) // ack: announce the new expected sequence
	return buf[:length]
}

// errorPath handles any framing defect (bad LEN, bad SEQ high nibble, bad
// SYNC trailer, bad CRC): a lone leading sync byte is treated as benign
// separator noise and consumes exactly one byte with no nak; anything else
// triggers a resync, with at most one nak per corruption burst.
func (c *Context) errorPath(buf []byte) {
	if buf[0] == syncByte {
		c.in.Pop(1)
		return
	}
	c.needSync = true
	c.resync()
}

// resync discards bytes up to and including the next sync byte (or the
// entire buffered region if none is found), then emits at most one nak for
// the burst regardless of whether a sync byte was found this call.
func (c *Context) resync() {
	buf := c.in.Peek()
	idx := -1
	for i, b := range buf {
		if b == syncByte {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.in.Pop(len(buf))
	} else {
		c.in.Pop(idx + 1)
		c.needSync = false
	}
	if c.needValid {
		return
	}
	c.needValid = true
	c.sendEmpty(c.nextSequence)
}

// sendEmpty writes a payload-less frame (LEN=5, given SEQ, CRC, SYNC) used
// for both ack and nak signalling. It is built directly rather than through
// an EncoderDescriptor because ack/nak carry no msg_id and no arguments.
func (c *Context) sendEmpty(seq byte) {
	buf, ok := c.out.Reserve(minFrameLen)
	if !ok {
		return // output buffer full: silently drop, the peer will retransmit
	}
	buf[posLen] = minFrameLen
	buf[posSeq] = seq
	crc := crc16.Compute(c.crcMode, buf[:headerSize])
	buf[headerSize] = byte(crc >> 8)
	buf[headerSize+1] = byte(crc)
	buf[minFrameLen-1] = syncByte
	c.out.Commit(minFrameLen)
}
