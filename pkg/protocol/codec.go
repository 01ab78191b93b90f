package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Limits applied when decoding untrusted input.
const (
	MaxStringLen = 4 << 20
	MaxItems     = 100_000
)

var (
	ErrVarintOverflow = errors.New("protocol: varint overflow")
	ErrStringTooLong  = errors.New("protocol: string exceeds limit")
	ErrTooManyItems   = errors.New("protocol: item count exceeds limit")
)

// Encoder appends primitive values to a growing byte slice.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded data. It aliases the encoder's buffer until
// the next Put or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Reset empties the encoder and keeps its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) PutByte(b byte) { e.buf = append(e.buf, b) }

func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutByte(1)
		return
	}
	e.PutByte(0)
}

func (e *Encoder) PutUvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

// PutString writes a uvarint length followed by the bytes of s.
func (e *Encoder) PutString(s string) {
	e.PutUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) PutFloat64(v float64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// Decoder reads primitive values from a byte slice. The first failure is
// sticky: later reads return zero values and Err reports it.
type Decoder struct {
	buf []byte
	err error
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first error hit while decoding.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// take consumes n bytes, or returns nil after recording a failure.
func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n > len(d.buf) {
		d.fail(io.ErrUnexpectedEOF)
		return nil
	}
	b := d.buf[:n:n]
	d.buf = d.buf[n:]
	return b
}

func (d *Decoder) Byte() byte {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *Decoder) Bool() bool { return d.Byte() != 0 }

func (d *Decoder) Uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	switch {
	case n == 0:
		d.fail(io.ErrUnexpectedEOF)
		return 0
	case n < 0:
		d.fail(ErrVarintOverflow)
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

// Text reads a uvarint length followed by that many bytes.
func (d *Decoder) Text() string {
	n := d.Uvarint()
	if n > MaxStringLen {
		d.fail(ErrStringTooLong)
		return ""
	}
	return string(d.take(int(n)))
}

func (d *Decoder) Float64() float64 {
	if b := d.take(8); b != nil {
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	}
	return 0
}

// Count reads an item count. Every item takes at least one byte, so a
// count larger than the unread input is truncation.
func (d *Decoder) Count() int {
	n := d.Uvarint()
	switch {
	case d.err != nil:
		return 0
	case n > MaxItems:
		d.fail(ErrTooManyItems)
		return 0
	case n > uint64(len(d.buf)):
		d.fail(io.ErrUnexpectedEOF)
		return 0
	}
	return int(n)
}
