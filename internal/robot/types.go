package robot

// Config represents a config.
type Config struct {
	BackendURL      string
	ProtocolVersion int
	DeviceID        string
	ClientID        string
	AccessToken     string
}

// Vec3 represents a vec3.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Action represents a action.
type Action struct {
	Behavior string `json:"behavior"`
	Motion   string `json:"motion,omitempty"`
	LookAt   *Vec3  `json:"look_at,omitempty"`
	Speech   string `json:"wav_filename,omitempty"`
	Enqueue  bool   `json:"enqueue,omitempty"`
}
