package serial

import (
	"bytes"
	"testing"
)

func TestExtractFrameNoTerminator(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("*0001"),
		[]byte("garbage\n with newline but no CR"),
		{0x00, 0xFF, 0x0A},
	}
	for _, in := range inputs {
		orig := append([]byte(nil), in...)
		frame, rest, ok := ExtractFrame(in)
		if ok || frame != nil {
			t.Errorf("ExtractFrame(%q) = %q, true; want no frame", in, frame)
		}
		if !bytes.Equal(rest, orig) {
			t.Errorf("ExtractFrame(%q) rest = %q, want input unchanged", in, rest)
		}
	}
}

func TestExtractFrameBoundary(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantFrame string
		wantRest  string
	}{
		{"terminator first", "\rabc", "", "abc"},
		{"terminator last", "*1234567890\r", "*1234567890", ""},
		{"middle", "*11122233344\r*99", "*11122233344", "*99"},
		{"crlf keeps lf in rest", "abc\r\n", "abc", "\n"},
		{"only first of two", "a\rb\r", "a", "b\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, rest, ok := ExtractFrame([]byte(tt.in))
			if !ok {
				t.Fatalf("ExtractFrame(%q) ok = false", tt.in)
			}
			if string(frame) != tt.wantFrame {
				t.Errorf("frame = %q, want %q", frame, tt.wantFrame)
			}
			if string(rest) != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
			k := len(tt.wantFrame)
			if len(frame) != k || len(rest) != len(tt.in)-k-1 {
				t.Errorf("lengths frame=%d rest=%d for k=%d", len(frame), len(rest), k)
			}
		})
	}
}
