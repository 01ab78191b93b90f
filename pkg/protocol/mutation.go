package protocol

import (
	"fmt"

	"github.com/vango-dev/fibers/internal/errors"
)

// MutationOp is a host tree operation.
type MutationOp uint8

const (
	OpCreateElement  MutationOp = 0x01 // Node, Value=tag
	OpCreateText     MutationOp = 0x02 // Node, Value=text
	OpSetProperty    MutationOp = 0x03 // Node, Key, Value
	OpClearProperty  MutationOp = 0x04 // Node, Key
	OpAddListener    MutationOp = 0x05 // Node, Key=event, Capture
	OpRemoveListener MutationOp = 0x06 // Node, Key=event, Capture
	OpAppendChild    MutationOp = 0x07 // Parent, Node
	OpRemoveChild    MutationOp = 0x08 // Parent, Node
)

// String returns the string representation of the operation.
func (op MutationOp) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpSetProperty:
		return "SetProperty"
	case OpClearProperty:
		return "ClearProperty"
	case OpAddListener:
		return "AddListener"
	case OpRemoveListener:
		return "RemoveListener"
	case OpAppendChild:
		return "AppendChild"
	case OpRemoveChild:
		return "RemoveChild"
	default:
		return "Unknown"
	}
}

// Mutation is a single host tree operation. Node and Parent are host node
// IDs; which other fields are meaningful depends on Op.
type Mutation struct {
	Op      MutationOp
	Node    uint64
	Parent  uint64
	Key     string
	Value   string
	Capture bool
}

// String returns a compact debug form.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement, OpCreateText:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Value)
	case OpSetProperty:
		return fmt.Sprintf("%s #%d %s=%q", m.Op, m.Node, m.Key, m.Value)
	case OpClearProperty:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Key)
	case OpAddListener, OpRemoveListener:
		return fmt.Sprintf("%s #%d %s capture=%v", m.Op, m.Node, m.Key, m.Capture)
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s #%d -> #%d", m.Op, m.Node, m.Parent)
	default:
		return m.Op.String()
	}
}

// MutationFrame is the batch of mutations applied by one commit.
type MutationFrame struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeMutations encodes a mutation frame payload.
func EncodeMutations(mf *MutationFrame) []byte {
	e := NewEncoder()
	EncodeMutationsTo(e, mf)
	return e.Bytes()
}

// EncodeMutationsTo appends a mutation frame payload to e.
func EncodeMutationsTo(e *Encoder, mf *MutationFrame) {
	e.PutUvarint(mf.Seq)
	e.PutUvarint(uint64(len(mf.Mutations)))
	for _, m := range mf.Mutations {
		e.PutByte(byte(m.Op))
		e.PutUvarint(m.Node)
		switch m.Op {
		case OpCreateElement, OpCreateText:
			e.PutString(m.Value)
		case OpSetProperty:
			e.PutString(m.Key)
			e.PutString(m.Value)
		case OpClearProperty:
			e.PutString(m.Key)
		case OpAddListener, OpRemoveListener:
			e.PutString(m.Key)
			e.PutBool(m.Capture)
		case OpAppendChild, OpRemoveChild:
			e.PutUvarint(m.Parent)
		}
	}
}

// DecodeMutations decodes a mutation frame payload. Malformed input
// yields an E160 error.
func DecodeMutations(data []byte) (*MutationFrame, error) {
	d := NewDecoder(data)
	mf := &MutationFrame{Seq: d.Uvarint()}
	n := d.Count()
	if err := d.Err(); err != nil {
		return nil, malformed(err)
	}

	mf.Mutations = make([]Mutation, n)
	for i := range mf.Mutations {
		m := &mf.Mutations[i]
		m.Op = MutationOp(d.Byte())
		m.Node = d.Uvarint()
		switch m.Op {
		case OpCreateElement, OpCreateText:
			m.Value = d.Text()
		case OpSetProperty:
			m.Key = d.Text()
			m.Value = d.Text()
		case OpClearProperty:
			m.Key = d.Text()
		case OpAddListener, OpRemoveListener:
			m.Key = d.Text()
			m.Capture = d.Bool()
		case OpAppendChild, OpRemoveChild:
			m.Parent = d.Uvarint()
		default:
			d.fail(fmt.Errorf("unknown mutation op 0x%02x", byte(m.Op)))
		}
		if err := d.Err(); err != nil {
			return nil, malformed(err).WithDetailf("mutation %d", i)
		}
	}
	return mf, nil
}

func malformed(err error) *errors.Error {
	return errors.New("E160").Wrap(err)
}
