package digest

import (
	"errors"
	"strings"
	"testing"
)

func TestSHA256_Sum(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SHA256{}.Sum(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum() = %q, want %q", got, tt.want)
			}
			if len(got) != Size {
				t.Errorf("len(Sum()) = %d, want %d", len(got), Size)
			}
		})
	}
}

func TestSHA256_Sum_Deterministic(t *testing.T) {
	data := []byte("certificate bytes")
	first := Bytes(data)
	for i := 0; i < 5; i++ {
		if got := Bytes(data); got != first {
			t.Fatalf("Bytes() = %q on call %d, want %q", got, i, first)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestSHA256_Sum_ReadError(t *testing.T) {
	got, err := SHA256{}.Sum(failingReader{})
	if err == nil {
		t.Fatal("Sum() expected error for failing reader")
	}
	if got != "" {
		t.Errorf("Sum() = %q on error, want empty", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{Bytes(nil), true},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("A", 64), false},
		{strings.Repeat("a", 63), false},
		{strings.Repeat("g", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
