package dispatch

import (
	"strings"
	"testing"
	"time"
)

func TestNewTrackingIDFormat(t *testing.T) {
	id := NewTrackingID(time.Now())
	if !strings.HasPrefix(id, "EMG-") {
		t.Fatalf("expected EMG- prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "EMG-")
	if suffix == "" {
		t.Fatal("empty timestamp suffix")
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffix must be uppercase, got %q", suffix)
	}
}

func TestNewTrackingIDUniqueSameMillisecond(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTrackingID(now)
		if seen[id] {
			t.Fatalf("duplicate tracking id %q", id)
		}
		seen[id] = true
	}
}

func TestCreateRequestInputValidate(t *testing.T) {
	in := &CreateRequestInput{PatientName: "  ", Location: "12 Main St"}
	if err := in.Validate(); err != ErrPatientNameRequired {
		t.Errorf("whitespace name must be rejected, got %v", err)
	}
	in = &CreateRequestInput{PatientName: "Dana Reyes", Location: "\t"}
	if err := in.Validate(); err != ErrLocationRequired {
		t.Errorf("whitespace location must be rejected, got %v", err)
	}
	in = &CreateRequestInput{PatientName: "Dana Reyes", Location: "12 Main St"}
	if err := in.Validate(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}
