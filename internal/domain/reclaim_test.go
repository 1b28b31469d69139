package domain

import (
	"errors"
	"testing"
	"time"
)

func TestReclaimConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ReclaimConfig
		wantErr bool
	}{
		{"valid", ReclaimConfig{"/mnt/usb/cam", 90, time.Minute}, false},
		{"zero threshold ok", ReclaimConfig{"/mnt/usb/cam", 0, time.Millisecond}, false},
		{"hundred threshold ok", ReclaimConfig{"/mnt/usb/cam", 100, time.Second}, false},
		{"relative directory", ReclaimConfig{"cam", 90, time.Minute}, true},
		{"empty directory", ReclaimConfig{"", 90, time.Minute}, true},
		{"threshold too high", ReclaimConfig{"/x", 101, time.Minute}, true},
		{"negative threshold", ReclaimConfig{"/x", -1, time.Minute}, true},
		{"zero interval", ReclaimConfig{"/x", 90, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestReclaimReport_Satisfied(t *testing.T) {
	r := &ReclaimReport{ThresholdPercent: 90, EndPercentage: 90}
	if !r.Satisfied() {
		t.Error("Satisfied() = false at threshold, want true")
	}
	r.EndPercentage = 90.01
	if r.Satisfied() {
		t.Error("Satisfied() = true above threshold, want false")
	}
	r.EndPercentage = 10
	r.Indeterminate = true
	if r.Satisfied() {
		t.Error("Satisfied() = true for indeterminate pass, want false")
	}
}

func TestStatus_Text(t *testing.T) {
	if got := KnownStatus("/storage/usb", 91.25).Text(); got != "/storage/usb: 91.2%" && got != "/storage/usb: 91.3%" {
		t.Errorf("Text() = %q", got)
	}
	if got := UnknownStatus("/storage/usb").Text(); got != "/storage/usb: unknown" {
		t.Errorf("Text() = %q, want unknown", got)
	}
}
