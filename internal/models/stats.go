package models

// SystemStats is a snapshot of the host shown on the admin dashboard.
type SystemStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
}
