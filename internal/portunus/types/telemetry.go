package types

import "time"

// MaxLightLevel is the top of the 12-bit light sensor range.
const MaxLightLevel = 4095

// Telemetry is the periodic state sample published to the management plane.
type Telemetry struct {
	ModuleID   string    `json:"module_id"`
	UptimeS    uint64    `json:"uptime_s"`
	LightLevel int       `json:"light_level"`
	Motion     bool      `json:"motion"`
	Locked     bool      `json:"locked"`
	LED        bool      `json:"led"`
	SampledAt  time.Time `json:"sampled_at"`
}
