package errors

import (
	stderrors "errors"
	"fmt"
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
			name:    "reactive error",
			code:    "E001",
			wantMsg: "Cyclic computation",
			wantCat: CategoryReactive,
		},
		{
			name:    "lifecycle error",
			code:    "E101",
			wantMsg: "Function called after end of life",
			wantCat: CategoryLifecycle,
		},
		{
			name:    "plugin error",
			code:    "E102",
			wantMsg: "Dependency not started",
			wantCat: CategoryPlugin,
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

func TestLoomError_Error(t *testing.T) {
	err := New("E101")
	if got, want := err.Error(), "E101: Function called after end of life"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E100").WithComponent("Counter").Wrap(fmt.Errorf("boom"))
	if got, want := err.Error(), "E100: Render failed (component Counter): boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &LoomError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestLoomError_IsMatchesCode(t *testing.T) {
	sentinel := New("E101")
	wrapped := fmt.Errorf("outer: %w", New("E101").WithComponent("X"))

	if !stderrors.Is(wrapped, sentinel) {
		t.Error("errors.Is should match errors with the same code")
	}
	if stderrors.Is(wrapped, New("E102")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestLoomError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := New("E100").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E100") != nil {
		t.Error("FromError(nil) should be nil")
	}

	le := New("E102")
	if FromError(le, "E100") != le {
		t.Error("FromError should return LoomErrors unchanged")
	}

	wrapped := FromError(stderrors.New("x"), "E100")
	if wrapped.Code != "E100" {
		t.Errorf("Code = %q, want E100", wrapped.Code)
	}
}

func TestFromPanic(t *testing.T) {
	err := FromPanic("E100", "kaboom", []byte("stack"))
	if err.Code != "E100" {
		t.Errorf("Code = %q, want E100", err.Code)
	}
	if !strings.Contains(err.Error(), "panic: kaboom") {
		t.Errorf("Error() = %q, want panic text", err.Error())
	}
	if err.Stack != "stack" {
		t.Errorf("Stack = %q", err.Stack)
	}

	cause := stderrors.New("typed")
	if !stderrors.Is(FromPanic("E100", cause, nil), cause) {
		t.Error("panics carrying errors should be wrapped")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E100").WithComponent("List").WithSuggestion("add an OnError boundary")
	out := err.Format()
	for _, want := range []string{"ERROR E100: Render failed", "component List", "Hint: add an OnError boundary"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "E100: Render failed [List]" {
		t.Errorf("FormatCompact() = %q", got)
	}

	js := err.FormatJSON()
	if !strings.Contains(js, `"code":"E100"`) || !strings.Contains(js, `"component":"List"`) {
		t.Errorf("FormatJSON() = %s", js)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
}

func TestRegistryCodes(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("code %s missing template", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has empty message or category", code)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, fmt.Errorf("loading: %w", New("E140").WithDetail("bad yaml")))
	if !strings.Contains(b.String(), "ERROR E140: Invalid loom configuration") || !strings.Contains(b.String(), "bad yaml") {
		t.Errorf("Fprint(LoomError) = %q", b.String())
	}

	b.Reset()
	Fprint(&b, stderrors.New("plain"))
	if got := strings.TrimSpace(b.String()); got != "ERROR: plain" {
		t.Errorf("Fprint(error) = %q", got)
	}
}
