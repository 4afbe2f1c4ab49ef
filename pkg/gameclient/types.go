package gameclient

// AudioParams describes the microphone stream the client uploads. Zero
// values keep the server's configured defaults.
type AudioParams struct {
	Format        string
	SampleRate    int
	Channels      int
	FrameDuration int
}

// Config represents a config.
type Config struct {
	ServerURL       string
	ProtocolVersion int
	Role            string
	Scene           string
	RoomID          string
	AudioParams     AudioParams
}

// RoomUpdate represents a roomUpdate.
type RoomUpdate struct {
	RoomID  string   `json:"room_id"`
	Members []string `json:"members"`
	IsOwner bool     `json:"is_owner"`
}
