package protocol

// EventMessage is a native event raised by a remote client against a host
// node.
type EventMessage struct {
	Target  uint64
	Type    string
	ClientX float64
	ClientY float64
	Key     string
	Value   string
}

// EncodeEvent encodes an event message payload.
func EncodeEvent(ev *EventMessage) []byte {
	e := NewEncoder()
	e.PutUvarint(ev.Target)
	e.PutString(ev.Type)
	e.PutFloat64(ev.ClientX)
	e.PutFloat64(ev.ClientY)
	e.PutString(ev.Key)
	e.PutString(ev.Value)
	return e.Bytes()
}

// DecodeEvent decodes an event message payload.
func DecodeEvent(data []byte) (*EventMessage, error) {
	d := NewDecoder(data)
	ev := &EventMessage{
		Target:  d.Uvarint(),
		Type:    d.Text(),
		ClientX: d.Float64(),
		ClientY: d.Float64(),
		Key:     d.Text(),
		Value:   d.Text(),
	}
	if err := d.Err(); err != nil {
		return nil, malformed(err)
	}
	return ev, nil
}
