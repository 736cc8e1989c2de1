package httpapi

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
)

type decisionResponse struct {
	ID        string `json:"id"`
	Granted   bool   `json:"granted"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type countersResponse struct {
	Granted   uint64 `json:"granted"`
	Denied    uint64 `json:"denied"`
	Malformed uint64 `json:"malformed"`
	Ignored   uint64 `json:"ignored"`
}

type statusResponse struct {
	ModuleID     string             `json:"module_id"`
	Version      string             `json:"version,omitempty"`
	Phase        string             `json:"phase"`
	Lock         string             `json:"lock"`
	UnlockUntil  string             `json:"unlock_until,omitempty"`
	Feedback     string             `json:"feedback"`
	Motion       string             `json:"motion"`
	LightLevel   int                `json:"light_level"`
	LEDDesired   bool               `json:"led_desired"`
	LEDApplied   bool               `json:"led_applied"`
	LastDecision *decisionResponse  `json:"last_decision,omitempty"`
	Counters     countersResponse   `json:"counters"`
	UptimeS      uint64             `json:"uptime_s"`
	UpdatedAt    string             `json:"updated_at,omitempty"`
	Retention    *retentionResponse `json:"retention,omitempty"`
}

type retentionResponse struct {
	Enabled       bool   `json:"enabled"`
	RetentionDays int    `json:"retention_days"`
	Passes        uint64 `json:"passes"`
	Deleted       int64  `json:"deleted"`
	LastPass      string `json:"last_pass,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

type ledRequest struct {
	On *bool `json:"on"`
}

type ledResponse struct {
	OK bool `json:"ok"`
	On bool `json:"on"`
}

// ── Status ───────────────────────────────────────────────────────────────────

func statusToResponse(s service.Status, version string) statusResponse {
	resp := statusResponse{
		ModuleID:   s.ModuleID,
		Version:    version,
		Phase:      s.Phase.String(),
		Lock:       s.Lock.String(),
		Feedback:   s.Feedback.String(),
		Motion:     s.Motion.String(),
		LightLevel: s.LightLevel,
		LEDDesired: s.LEDDesired,
		LEDApplied: s.LEDApplied,
		Counters: countersResponse{
			Granted:   s.Counters.Granted,
			Denied:    s.Counters.Denied,
			Malformed: s.Counters.Malformed,
			Ignored:   s.Counters.Ignored,
		},
		UnlockUntil: formatTime(s.UnlockUntil),
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
	if !s.StartedAt.IsZero() && s.UpdatedAt.After(s.StartedAt) {
		resp.UptimeS = uint64(s.UpdatedAt.Sub(s.StartedAt) / time.Second)
	}
	if d := s.LastDecision; d != nil {
		resp.LastDecision = &decisionResponse{
			ID:        d.ID,
			Granted:   d.Granted,
			Reason:    d.Reason,
			Timestamp: formatTime(d.Timestamp),
		}
	}
	return resp
}

func retentionToResponse(st service.RetentionStats) *retentionResponse {
	return &retentionResponse{
		Enabled:       st.Enabled,
		RetentionDays: st.RetentionDays,
		Passes:        st.Passes,
		Deleted:       st.Deleted,
		LastPass:      formatTime(st.LastPass),
		LastError:     st.LastError,
	}
}

// statusToProto carries the same fields as the JSON form. Numbers become
// doubles, as structpb has no integer kind.
func statusToProto(r statusResponse) (*structpb.Struct, error) {
	m := map[string]any{
		"module_id":   r.ModuleID,
		"phase":       r.Phase,
		"lock":        r.Lock,
		"feedback":    r.Feedback,
		"motion":      r.Motion,
		"light_level": r.LightLevel,
		"led_desired": r.LEDDesired,
		"led_applied": r.LEDApplied,
		"uptime_s":    r.UptimeS,
		"counters": map[string]any{
			"granted":   r.Counters.Granted,
			"denied":    r.Counters.Denied,
			"malformed": r.Counters.Malformed,
			"ignored":   r.Counters.Ignored,
		},
	}
	if r.Version != "" {
		m["version"] = r.Version
	}
	if r.UnlockUntil != "" {
		m["unlock_until"] = r.UnlockUntil
	}
	if r.UpdatedAt != "" {
		m["updated_at"] = r.UpdatedAt
	}
	if d := r.LastDecision; d != nil {
		m["last_decision"] = map[string]any{
			"id":        d.ID,
			"granted":   d.Granted,
			"reason":    d.Reason,
			"timestamp": d.Timestamp,
		}
	}
	if rt := r.Retention; rt != nil {
		ret := map[string]any{
			"enabled":        rt.Enabled,
			"retention_days": rt.RetentionDays,
			"passes":         rt.Passes,
			"deleted":        rt.Deleted,
		}
		if rt.LastPass != "" {
			ret["last_pass"] = rt.LastPass
		}
		if rt.LastError != "" {
			ret["last_error"] = rt.LastError
		}
		m["retention"] = ret
	}
	return structpb.NewStruct(m)
}

// ── LED ──────────────────────────────────────────────────────────────────────

// ledFromProto reads the "on" field of a Struct body.
func ledFromProto(s *structpb.Struct) (bool, bool) {
	v, ok := s.GetFields()["on"]
	if !ok {
		return false, false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, false
	}
	return b.BoolValue, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
