package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	APIBaseURL          string `yaml:"apiBaseURL"`
	UserID              string `yaml:"userID"`
	Port                int    `yaml:"port"`
	ChunkSizeBytes      int64  `yaml:"chunkSizeBytes"`
	MaxUploadBytes      int64  `yaml:"maxUploadBytes"`
	Reconnect           bool   `yaml:"reconnect"`
	ReconnectIntervalMs int    `yaml:"reconnectIntervalMs"`
	AutoLive            bool   `yaml:"autoLive"`
	RequestsPerSecond   int    `yaml:"requestsPerSecond,omitempty"` // 0 disables pacing
	TrackerTTLMinutes   int    `yaml:"trackerTTLMinutes"`
	NotifySocketPath    string `yaml:"notifySocketPath,omitempty"`
	WebBaseURL          string `yaml:"webBaseURL,omitempty"` // front end origin used for share links
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log           string
	UseConfigPath string
	UseBaseURL    string
	UsePort       int
	UseUserID     string
	UseAutoLive   bool
	SkipNotify    bool // if true, skip unix socket notify.
}

// ConfigResponse is the JSON shape for GET /api/self/v1/config.
type ConfigResponse struct {
	APIBaseURL          string `json:"api_base_url"`
	UserID              string `json:"user_id"`
	Port                int    `json:"port"`
	ChunkSizeBytes      int64  `json:"chunk_size_bytes"`
	MaxUploadBytes      int64  `json:"max_upload_bytes"`
	Reconnect           bool   `json:"reconnect"`
	ReconnectIntervalMs int    `json:"reconnect_interval_ms"`
	AutoLive            bool   `json:"auto_live"`
	SkipNotify          bool   `json:"skip_notify"`
	WebBaseURL          string `json:"web_base_url"`
}

// ConfigPatchRequest is the JSON body for PATCH /api/self/v1/config. Only settings read
// per request can change at runtime.
type ConfigPatchRequest struct {
	MaxUploadBytes      *int64  `json:"max_upload_bytes"`
	Reconnect           *bool   `json:"reconnect"`
	ReconnectIntervalMs *int    `json:"reconnect_interval_ms"`
	AutoLive            *bool   `json:"auto_live"`
	WebBaseURL          *string `json:"web_base_url"`
}
