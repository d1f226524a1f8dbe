package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
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
			name:    "config error",
			code:    "R101",
			wantMsg: "Config file could not be parsed",
			wantCat: CategoryConfig,
		},
		{
			name:    "query error",
			code:    "R120",
			wantMsg: "Malformed query string",
			wantCat: CategoryQuery,
		},
		{
			name:    "unknown error code",
			code:    "R999",
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

func TestErrorString(t *testing.T) {
	err := New("R140").WithDetailf("got %q", "page")
	if got := err.Error(); got != `R140: Expected key=value: got "page"` {
		t.Errorf("Error() = %q", got)
	}

	err = Newf(CategoryCLI, "no url given")
	if got := err.Error(); got != "no url given" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapAndIs(t *testing.T) {
	err := New("R100").Wrap(fs.ErrNotExist)
	wrapped := fmt.Errorf("loading: %w", err)

	if !stderrors.Is(wrapped, fs.ErrNotExist) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !HasCode(wrapped, "R100") {
		t.Error("HasCode(R100) should be true")
	}
	if HasCode(wrapped, "R101") {
		t.Error("HasCode(R101) should be false")
	}

	var e *Error
	if !stderrors.As(wrapped, &e) || e.Code != "R100" {
		t.Errorf("errors.As: got %v", e)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R161") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("R120")
	if FromError(fmt.Errorf("ctx: %w", orig), "R161") != orig {
		t.Error("FromError should return an existing *Error")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "R161")
	if got.Code != "R161" || got.Wrapped != plain {
		t.Errorf("FromError wrapped = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R103").
		WithSuggestion(`Use a value like "250ms"`).
		Wrap(stderrors.New(`time: invalid duration "fast"`))
	out := err.Format()

	for _, want := range []string{
		"ERROR R103: Invalid debounce interval",
		"positive Go duration",
		`Cause: time: invalid duration "fast"`,
		`Hint: Use a value like "250ms"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("plain failure"))
	if buf.String() != "ERROR: plain failure\n" {
		t.Errorf("PrintError plain = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, New("R105"))
	if !strings.HasPrefix(buf.String(), "ERROR R105: Invalid server address") {
		t.Errorf("PrintError coded = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if len(lines) < 2 {
		t.Errorf("expected multiple lines, got %d", len(lines))
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 || codes[0] != "R100" {
		t.Fatalf("Codes() = %v", codes)
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s incomplete: %+v", code, tmpl)
		}
	}
}
