package mqtt

import (
	"errors"
	"testing"
)

func TestParseLEDPayload(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"ON", true},
		{"on", true},
		{" On\n", true},
		{"1", true},
		{"true", true},
		{"OFF", false},
		{"off", false},
		{"0", false},
		{"False", false},
		{`{"state":"ON"}`, true},
		{`{"state":"off"}`, false},
		{`{"on":true}`, true},
		{`{"on":false,"state":"ON"}`, false},
	}
	for _, c := range cases {
		got, err := ParseLEDPayload([]byte(c.in))
		if err != nil {
			t.Errorf("ParseLEDPayload(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseLEDPayload(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseLEDPayload_Invalid(t *testing.T) {
	for _, in := range []string{"", "TOGGLE", "2", "{", `{"brightness":10}`, `{"state":"dim"}`} {
		if _, err := ParseLEDPayload([]byte(in)); !errors.Is(err, ErrInvalidLEDValue) {
			t.Errorf("ParseLEDPayload(%q) err = %v, want ErrInvalidLEDValue", in, err)
		}
	}
}

func TestNewTopics(t *testing.T) {
	tp := NewTopics("portunus/", "door-001")
	if tp.LEDSet != "portunus/door-001/led/set" {
		t.Errorf("led set = %q", tp.LEDSet)
	}
	if tp.State != "portunus/door-001/state" {
		t.Errorf("state = %q", tp.State)
	}
	if tp.Access != "portunus/door-001/access" {
		t.Errorf("access = %q", tp.Access)
	}
}
