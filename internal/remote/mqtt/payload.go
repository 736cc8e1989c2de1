package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidLEDValue = errors.New("invalid led value")

// ParseLEDPayload accepts ON/OFF, 1/0 and true/false in any case, or a
// JSON object {"state":"ON"} or {"on":true}.
func ParseLEDPayload(payload []byte) (bool, error) {
	p := bytes.TrimSpace(payload)
	if len(p) > 0 && p[0] == '{' {
		var cmd struct {
			State *string `json:"state"`
			On    *bool   `json:"on"`
		}
		if err := json.Unmarshal(p, &cmd); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidLEDValue, err)
		}
		switch {
		case cmd.On != nil:
			return *cmd.On, nil
		case cmd.State != nil:
			return parseLEDWord(*cmd.State)
		}
		return false, fmt.Errorf("%w: missing state", ErrInvalidLEDValue)
	}
	return parseLEDWord(string(p))
}

func parseLEDWord(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ON", "1", "TRUE":
		return true, nil
	case "OFF", "0", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidLEDValue, s)
}

func onOff(on bool) []byte {
	if on {
		return []byte("ON")
	}
	return []byte("OFF")
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
