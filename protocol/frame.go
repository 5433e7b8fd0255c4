package protocol

// Frame layout: len, seq, payload..., crc hi, crc lo, sync. len counts the
// whole frame. seq carries FrameDest in the high nibble and a rolling
// counter in the low nibble, so the host can count frames lost to a full
// UART buffer.
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameLengthMin   = FrameHeaderSize + FrameTrailerSize
	FrameLengthMax   = 64
	FramePayloadMax  = FrameLengthMax - FrameLengthMin

	framePositionLen = 0
	framePositionSeq = 1
	frameTrailerCRC  = 3
	frameTrailerSync = 1

	FrameSync    = 0x7E
	FrameDest    = 0x10
	FrameSeqMask = 0x0F
)

// Encoder numbers and frames outgoing messages.
type Encoder struct {
	seq   uint8
	frame frameBuffer
}

// Encode appends one frame holding msg followed by whatever args writes.
// It reports false and writes nothing when the frame would exceed
// FrameLengthMax or output cannot take it whole.
func (e *Encoder) Encode(output OutputBuffer, msg MessageID, args func(OutputBuffer)) bool {
	f := &e.frame
	f.reset()
	f.Output([]byte{0, FrameDest | e.seq&FrameSeqMask})
	EncodeVLQUint(f, uint32(msg))
	if args != nil {
		args(f)
	}
	if f.overflow || f.pos+FrameTrailerSize > FrameLengthMax {
		return false
	}
	f.buf[framePositionLen] = uint8(f.pos + FrameTrailerSize)
	crc := CRC16(f.buf[:f.pos])
	f.Output([]byte{uint8(crc >> 8), uint8(crc), FrameSync})

	if free, ok := output.(interface{ Free() int }); ok && free.Free() < f.pos {
		return false
	}
	output.Output(f.buf[:f.pos])
	e.seq = (e.seq + 1) & FrameSeqMask
	return true
}

// frameBuffer assembles a single frame.
type frameBuffer struct {
	buf      [FrameLengthMax]byte
	pos      int
	overflow bool
}

func (f *frameBuffer) reset() {
	f.pos = 0
	f.overflow = false
}

func (f *frameBuffer) Output(data []byte) {
	n := copy(f.buf[f.pos:], data)
	f.pos += n
	if n < len(data) {
		f.overflow = true
	}
}

func (f *frameBuffer) CurPosition() int { return f.pos }

func (f *frameBuffer) Update(pos int, val byte) {
	if pos < f.pos {
		f.buf[pos] = val
	}
}

func (f *frameBuffer) DataSince(pos int) []byte {
	if pos > f.pos {
		return nil
	}
	return f.buf[pos:f.pos]
}

// Frame is one decoded message. Payload aliases the decoder's input and is
// only valid during the callback.
type Frame struct {
	Seq     uint8
	Msg     MessageID
	Payload []byte
}

// FrameDecoder splits a byte stream into frames, resynchronising on the
// sync byte after any corruption.
type FrameDecoder struct {
	desync bool
	seen   bool
	expect uint8

	Frames  uint32 // frames delivered
	Dropped uint32 // resynchronisations after bad length, dest or CRC
	Lost    uint32 // frames missing according to the sequence counter
}

// Feed consumes every complete frame in input and calls fn for each. A
// trailing partial frame is left in input for the next call.
func (d *FrameDecoder) Feed(input InputBuffer, fn func(Frame)) {
	data := input.Data()

	for len(data) > 0 {
		if d.desync {
			i := 0
			for i < len(data) && data[i] != FrameSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.desync = false
			continue
		}

		if data[0] == FrameSync {
			data = data[1:]
			continue
		}
		if len(data) < FrameLengthMin {
			break
		}

		n := int(data[framePositionLen])
		seq := data[framePositionSeq]
		if n < FrameLengthMin || n > FrameLengthMax || seq&^FrameSeqMask != FrameDest {
			d.resync()
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-frameTrailerSync] != FrameSync {
			d.resync()
			continue
		}
		crc := uint16(data[n-frameTrailerCRC])<<8 | uint16(data[n-frameTrailerCRC+1])
		if crc != CRC16(data[:n-FrameTrailerSize]) {
			d.resync()
			continue
		}

		payload := data[FrameHeaderSize : n-FrameTrailerSize]
		data = data[n:]

		seq &= FrameSeqMask
		if d.seen && seq != d.expect {
			d.Lost += uint32((seq - d.expect) & FrameSeqMask)
		}
		d.seen = true
		d.expect = (seq + 1) & FrameSeqMask

		msg, err := DecodeVLQUint(&payload)
		if err != nil {
			d.Dropped++
			continue
		}
		d.Frames++
		if fn != nil {
			fn(Frame{Seq: seq, Msg: MessageID(msg), Payload: payload})
		}
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

func (d *FrameDecoder) resync() {
	d.desync = true
	d.Dropped++
}

// Reset forgets sequence history, for use after reopening the port.
func (d *FrameDecoder) Reset() {
	*d = FrameDecoder{}
}
