package mqtt

import "strings"

// Topics are the per-module MQTT topics, all under <prefix>/<module>.
type Topics struct {
	State     string // retained online/offline, also the last will
	Telemetry string
	Access    string
	Motion    string
	Lock      string // retained
	LEDSet    string // subscribed
	LEDState  string // retained ON/OFF
}

func NewTopics(prefix, moduleID string) Topics {
	base := strings.TrimSuffix(prefix, "/") + "/" + moduleID
	return Topics{
		State:     base + "/state",
		Telemetry: base + "/telemetry",
		Access:    base + "/access",
		Motion:    base + "/motion",
		Lock:      base + "/lock",
		LEDSet:    base + "/led/set",
		LEDState:  base + "/led/state",
	}
}
