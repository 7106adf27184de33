package client

import "testing"

func TestParseFields_NumbersAndText(t *testing.T) {
	fields, err := ParseFields("pan=10.5\ntilt=-3.0\nzoom=1\nautofocus= on \n")
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}

	for name, want := range map[string]float64{"pan": 10.5, "tilt": -3.0, "zoom": 1} {
		got, ok := fields[name].Float()
		if !ok {
			t.Errorf("%s should be numeric", name)
		}
		if got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	af := fields["autofocus"]
	if af.IsNumber() {
		t.Error("autofocus should be text")
	}
	if af.String() != "on" {
		t.Errorf("autofocus = %q, want %q", af.String(), "on")
	}
}

func TestParseFields_TrimsNames(t *testing.T) {
	fields, err := ParseFields("  pan =5\r\n")
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if _, ok := fields["pan"]; !ok {
		t.Errorf("expected trimmed name 'pan', got %v", fields)
	}
}

func TestParseFields_ValueKeepsEquals(t *testing.T) {
	fields, err := ParseFields("root.Overlay=text=%F %T\n")
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if got := fields["root.Overlay"].String(); got != "text=%F %T" {
		t.Errorf("value = %q, want %q", got, "text=%F %T")
	}
}

func TestParseFields_SkipsBlankLines(t *testing.T) {
	fields, err := ParseFields("\npan=1\n\n")
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if len(fields) != 1 {
		t.Errorf("len(fields) = %d, want 1", len(fields))
	}
}

func TestParseFields_LineWithoutSeparator(t *testing.T) {
	if _, err := ParseFields("pan=1\nError: no PTZ driver\n"); err == nil {
		t.Error("expected error for line without '='")
	}
}
