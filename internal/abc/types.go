package abc

import "time"

// HealthStatus is the payload of GET /api/system/health.
type HealthStatus struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Services      map[string]string `json:"services"`
	UptimeSeconds int64             `json:"uptime_seconds,omitempty"`
}

// UserStatus is one element of the GET /api/users/status payload.
type UserStatus struct {
	UserID       string     `json:"user_id"`
	Username     string     `json:"username"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	SessionCount int        `json:"session_count"`
}

// ServiceInfo is one element of the GET /api/services/list payload.
type ServiceInfo struct {
	ServiceID string   `json:"service_id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// LogEntry is one element of the POST /api/logs/query payload.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SystemMetrics is the payload of GET /api/metrics/current.
type SystemMetrics struct {
	CPUUsage       float64   `json:"cpu_usage"`
	MemoryUsage    float64   `json:"memory_usage"`
	DiskUsage      float64   `json:"disk_usage"`
	NetworkInMbps  float64   `json:"network_in_mbps"`
	NetworkOutMbps float64   `json:"network_out_mbps"`
	RequestRate    float64   `json:"request_rate"`
	ErrorRate      float64   `json:"error_rate"`
	Timestamp      time.Time `json:"timestamp"`
}

// usersResponse, servicesResponse and logsResponse mirror the ABC system's
// envelope objects around list payloads.
type usersResponse struct {
	Users []UserStatus `json:"users"`
}

type servicesResponse struct {
	Services []ServiceInfo `json:"services"`
}

type logsResponse struct {
	Logs []LogEntry `json:"logs"`
}
