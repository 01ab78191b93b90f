package errors

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "malformed element",
			code:    "E101",
			wantMsg: "Malformed element description",
			wantCat: CategoryRender,
		},
		{
			name:    "missing host parent",
			code:    "E104",
			wantMsg: "No host parent found during commit",
			wantCat: CategoryCommit,
		},
		{
			name:    "protocol error",
			code:    "E160",
			wantMsg: "Malformed mutation frame",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New("E101")
	if got, want := err.Error(), "E101: Malformed element description"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithDetail("child 0 has type chan int")
	if got, want := err.Error(), "E101: Malformed element description: child 0 has type chan int"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := Newf(CategoryCLI, "bad flag %q", "--x")
	if got, want := plain.Error(), `bad flag "--x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("E120").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !stderrors.Is(err, New("E120")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("E121")) {
		t.Error("errors.Is should not match a different code")
	}

	outer := fmt.Errorf("loading: %w", err)
	if !HasCode(outer, "E120") {
		t.Error("HasCode should see through fmt wrapping")
	}
	if HasCode(outer, "E101") {
		t.Error("HasCode matched the wrong code")
	}
}

func TestError_WithFunc(t *testing.T) {
	fn := func() {}
	err := New("E101").WithFunc("Widget", fn)

	if err.Component != "Widget" {
		t.Errorf("Component = %q, want Widget", err.Component)
	}
	if err.Location == nil {
		t.Fatal("Location should be set for a function value")
	}
	if !strings.HasSuffix(err.Location.File, "errors_test.go") {
		t.Errorf("Location.File = %q, want errors_test.go", err.Location.File)
	}

	nilErr := New("E101").WithFunc("Nothing", nil)
	if nilErr.Location != nil {
		t.Error("Location should stay nil for a non-function")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E120") != nil {
		t.Error("FromError(nil) should return nil")
	}

	orig := New("E101")
	if FromError(orig, "E120") != orig {
		t.Error("FromError should return an *Error unchanged")
	}

	wrapped := FromError(fmt.Errorf("boom"), "E120")
	if wrapped.Code != "E120" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v, want E120 wrapping the cause", wrapped)
	}
}

func TestFormat(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	err := New("E102").
		WithComponent("Counter").
		WithSuggestion("Move the UseState call out of the if statement")

	formatted := err.Format()

	for _, want := range []string{
		"ERROR E102: Hook order changed",
		"in component Counter",
		"same order on every render",
		"Hint: Move the UseState call",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E101").WithComponent("List")
	err.Location = &Location{File: "list.go", Line: 10}

	want := "list.go:10: E101: Malformed element description (in List)"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	if !slices.IsSorted(codes) {
		t.Errorf("Codes() = %v, want sorted", codes)
	}
	if !slices.Contains(codes, "E104") {
		t.Error("Codes() should include E104")
	}

	tmpl, ok := Lookup("E104")
	if !ok || tmpl.Category != CategoryCommit {
		t.Errorf("Lookup(E104) = %+v, %v", tmpl, ok)
	}
	if _, ok := Lookup("E999"); ok {
		t.Error("Lookup(E999) = true, want false")
	}
}

func TestFprint(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var buf strings.Builder
	Fprint(&buf, fmt.Errorf("loading: %w", New("E141")))
	if !strings.Contains(buf.String(), "ERROR E141: Configuration file not found") {
		t.Errorf("Fprint(wrapped) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, fmt.Errorf("plain"))
	if got := buf.String(); got != "\nERROR: plain\n\n" {
		t.Errorf("Fprint(plain) = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if got := strings.Join(lines, " "); got != "one two three four five six" {
		t.Errorf("wrapText lost words: %q", got)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
