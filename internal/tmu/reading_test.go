package tmu

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFrameValid(t *testing.T) {
	tests := []struct {
		frame string
		want  string
	}{
		{"*1234567890", "567890"},
		{"*abcd567890", "567890"},
		{"*11122233344", "223334"},
		{"*0001+23.45 extra", "+23.45"},
	}
	for _, tt := range tests {
		r, err := ParseFrame("tmu1", []byte(tt.frame))
		if err != nil {
			t.Errorf("ParseFrame(%q) error = %v", tt.frame, err)
			continue
		}
		if r.Temperature != tt.want {
			t.Errorf("ParseFrame(%q) temperature = %q, want %q", tt.frame, r.Temperature, tt.want)
		}
		if r.Temperature != tt.frame[5:11] {
			t.Errorf("ParseFrame(%q) temperature not at offsets [5,11)", tt.frame)
		}
		if r.DeviceID != "tmu1" {
			t.Errorf("DeviceID = %q", r.DeviceID)
		}
	}
}

func TestParseFrameInvalid(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"empty", nil, ErrInvalidFrame},
		{"short with star", []byte("*123456789"), ErrInvalidFrame},
		{"long without star", []byte("#1234567890"), ErrInvalidFrame},
		{"short without star", []byte("12"), ErrInvalidFrame},
		{"leading space", []byte(" *1234567890"), ErrInvalidFrame},
		{"non ascii", []byte("*1234\xb0C7890"), ErrNotASCII},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame("tmu1", tt.frame)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseFrame() error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("ParseFrame() error = %v does not match ErrInvalidFrame", err)
			}
			var fe *FrameError
			if !errors.As(err, &fe) || fe.DeviceID != "tmu1" {
				t.Errorf("ParseFrame() error = %#v, want *FrameError", err)
			}
		})
	}
}

func TestFrameErrorMessage(t *testing.T) {
	_, err := ParseFrame("boiler", []byte("bad"))
	if err == nil || !strings.Contains(err.Error(), "boiler") || !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("error message = %v", err)
	}
}
