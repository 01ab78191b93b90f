package events

import "strings"

// Kind selects which native fields a synthetic event copies.
type Kind uint8

const (
	KindBasic Kind = iota
	KindMouse
	KindKeyboard
	KindInput
)

// Info describes one supported native event.
type Info struct {
	Native    string // "click"
	Synthetic string // "onClick"
	Kind      Kind
}

// CaptureName returns the capture-phase handler key: "onClickCapture".
func (i Info) CaptureName() string {
	return i.Synthetic + "Capture"
}

// supported is the fixed set of delegated events.
var supported = []Info{
	{"click", "onClick", KindMouse},
	{"dblclick", "onDoubleClick", KindMouse},
	{"mousedown", "onMouseDown", KindMouse},
	{"mouseup", "onMouseUp", KindMouse},
	{"keydown", "onKeyDown", KindKeyboard},
	{"keypress", "onKeyPress", KindKeyboard},
	{"keyup", "onKeyUp", KindKeyboard},
	{"input", "onInput", KindInput},
	{"change", "onChange", KindInput},
}

var byNative = func() map[string]Info {
	m := make(map[string]Info, len(supported))
	for _, info := range supported {
		m[info.Native] = info
	}
	return m
}()

// Supported returns the supported events in registration order.
func Supported() []Info {
	return append([]Info(nil), supported...)
}

// Lookup returns the info for a native event name.
func Lookup(native string) (Info, bool) {
	info, ok := byNative[native]
	return info, ok
}

// Handles reports whether key is a handler key served by delegation,
// in either phase. Matching is case-insensitive.
func Handles(key string) bool {
	_, ok := infoForKey(key)
	return ok
}

func infoForKey(key string) (Info, bool) {
	for _, info := range supported {
		if strings.EqualFold(key, info.Synthetic) || strings.EqualFold(key, info.CaptureName()) {
			return info, true
		}
	}
	return Info{}, false
}
