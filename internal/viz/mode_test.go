package viz

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Off, false},
		{"off", Off, false},
		{"none", Off, false},
		{"print", Print, false},
		{"plot", Plot, false},
		{"verbose", Off, true},
	}

	for _, tc := range tests {
		t.Run("in="+tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseMode(%q) error = %v; wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseMode(%q) = %v; want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestModeEnabled(t *testing.T) {
	if Off.Enabled() {
		t.Error("Off should not be enabled")
	}
	if !Print.Enabled() || !Plot.Enabled() {
		t.Error("Print and Plot should be enabled")
	}
}

func TestModeString(t *testing.T) {
	if Off.String() != "off" || Print.String() != "print" || Plot.String() != "plot" {
		t.Error("Mode.String mismatch")
	}
}
