package driver

import (
	"encoding/json"

	"covmark/internal/diag"
	"covmark/internal/observ"
)

// reportTimings attaches the phase breakdown of the last reload to the
// reporter as a SessionInfo note: "timings: <json>".
func reportTimings(r diag.Reporter, path string, timer *observ.Timer) {
	if r == nil || timer == nil {
		return
	}
	data, err := json.Marshal(struct {
		Path string `json:"report"`
		observ.Report
	}{path, timer.Report()})
	if err != nil {
		return
	}
	diag.Infof(r, diag.SessionInfo, path, 0, "timings: %s", data)
}
