package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the largest payload a frame may carry.
	MaxPayloadSize = 1 << 24
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameMutations FrameType = 0x01 // Host tree mutations from one commit
	FrameEvent     FrameType = 0x02 // Native event from a remote client
	FrameError     FrameType = 0x03 // Error message
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameMutations:
		return "Mutations"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagInitial FrameFlags = 0x01 // Mutations replay the full tree from scratch
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

var ErrFrameTooLarge = errors.New("protocol: frame payload too large")

// Frame is one websocket message: a fixed header and a payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the header followed by the payload.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[2:FrameHeaderSize], uint32(len(f.Payload)))
	return append(buf, f.Payload...)
}

// DecodeFrame parses a frame. The payload is copied out of data.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(data[2:FrameHeaderSize])
	if n > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	body := data[FrameHeaderSize:]
	if int(n) > len(body) {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{
		Type:    FrameType(data[0]),
		Flags:   FrameFlags(data[1]),
		Payload: bytes.Clone(body[:n]),
	}, nil
}
