package chat

// Conf is loaded from config/.chat-api.json
type Conf struct {
	Host            string `json:"host"`
	ClientID        string `json:"client_id"` // ID of this App as a Client of the chat API
	APIKey          string `json:"api_key"`
	InitEndpoint    string `json:"init_session"`
	MessageEndpoint string `json:"send_message"`
	TimeoutMs       int    `json:"timeout_ms"`
}

const (
	DefaultInitEndpoint    = "/init_session"
	DefaultMessageEndpoint = "/send_message"
	DefaultTimeoutMs       = 15000
)

func (c *Conf) Prepare() {
	if c.InitEndpoint == "" {
		c.InitEndpoint = DefaultInitEndpoint
	}
	if c.MessageEndpoint == "" {
		c.MessageEndpoint = DefaultMessageEndpoint
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
}
