package otp

import (
	"errors"
	"testing"
)

func TestIndexOf(t *testing.T) {
	for i := 0; i < AlphabetSize; i++ {
		got, err := IndexOf(Symbols[i])
		if err != nil {
			t.Fatalf("IndexOf(%q) failed: %v", Symbols[i], err)
		}
		if got != i {
			t.Errorf("IndexOf(%q) = %d, want %d", Symbols[i], got, i)
		}
	}
}

func TestIndexOf_Invalid(t *testing.T) {
	for _, b := range []byte{'a', 'z', '@', '[', '\n', 0, '0', 0xff} {
		if _, err := IndexOf(b); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("IndexOf(%q) error = %v, want ErrInvalidSymbol", b, err)
		}
	}
}

func TestSymbolOf(t *testing.T) {
	if SymbolOf(0) != 'A' {
		t.Errorf("SymbolOf(0) = %q, want 'A'", SymbolOf(0))
	}
	if SymbolOf(25) != 'Z' {
		t.Errorf("SymbolOf(25) = %q, want 'Z'", SymbolOf(25))
	}
	if SymbolOf(26) != ' ' {
		t.Errorf("SymbolOf(26) = %q, want ' '", SymbolOf(26))
	}
}

func TestAlphabetSize(t *testing.T) {
	if AlphabetSize != 27 {
		t.Errorf("AlphabetSize = %d, want 27", AlphabetSize)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]byte("THE QUICK BROWN FOX")); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) failed: %v", err)
	}
	if err := Validate([]byte("HELLO world")); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		message string
		key     string
		wantErr error
	}{
		{"equal length", "HELLO", "ABCDE", nil},
		{"longer key", "HELLO", "ABCDEFG", nil},
		{"empty", "", "", nil},
		{"short key", "HELLO", "ABC", ErrKeyTooShort},
		{"bad message", "HELLO!", "ABCDEFG", ErrInvalidSymbol},
		{"bad key", "HELLO", "ABCDe", ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput([]byte(tt.message), []byte(tt.key))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrimNewline(t *testing.T) {
	tests := map[string]string{
		"HELLO\n":   "HELLO",
		"HELLO\r\n": "HELLO",
		"HELLO":     "HELLO",
		"HELLO\n\n": "HELLO\n",
		"\n":        "",
	}
	for in, want := range tests {
		if got := string(TrimNewline([]byte(in))); got != want {
			t.Errorf("TrimNewline(%q) = %q, want %q", in, got, want)
		}
	}
}
