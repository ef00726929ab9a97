package generator

import "time"

// Assistants and platforms offered by the form.
var (
	Assistants = []string{"Zeus", "Crev"}
	Platforms  = []string{"LinkedIn", "Instagram", "X", "Blog", "Custom"}
)

// Params holds the editable form fields.
type Params struct {
	Assistant   string  `json:"assistant"`
	Topic       string  `json:"topic"`
	BrandType   string  `json:"brand_type"`
	Audience    string  `json:"audience"`
	Tone        string  `json:"tone"`
	Platform    string  `json:"platform"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultParams returns the form as it looks on first load.
func DefaultParams() Params {
	return Params{
		Assistant:   "Zeus",
		Tone:        "professional",
		Platform:    "LinkedIn",
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   600,
	}
}

// Payload is the JSON body posted to the generation API.
type Payload struct {
	Assistant   string  `json:"assistant"`
	Template    string  `json:"template"`
	BrandType   string  `json:"brand_type"`
	Topic       string  `json:"topic"`
	Audience    string  `json:"audience"`
	Tone        string  `json:"tone"`
	SystemJSON  string  `json:"system_json"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// HistoryEntry records one completed generation. Entries are never modified
// after they are created.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Assistant string    `json:"assistant"`
	Topic     string    `json:"topic"`
	Platform  string    `json:"platform"`
	Tone      string    `json:"tone"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// Example is a canned set of topic fields the user can apply in one click.
type Example struct {
	Title     string `json:"title"`
	Topic     string `json:"topic"`
	BrandType string `json:"brand_type"`
	Audience  string `json:"audience"`
	Tone      string `json:"tone"`
}

// Snapshot is a consistent copy of the controller state. Version grows by
// one on every change.
type Snapshot struct {
	Params
	Loading bool           `json:"loading"`
	Output  string         `json:"output"`
	Error   string         `json:"error,omitempty"`
	History []HistoryEntry `json:"history"`
	Version uint64         `json:"version"`
}

// Download is the plain-text file produced from the current output.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
}
