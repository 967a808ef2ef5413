package types

type Config struct {
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	Model       string  `json:"model" mapstructure:"model"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	TopP        float64 `json:"top_p" mapstructure:"top_p"`
}

// Speaker identifies who produced a transcript entry.
type Speaker uint

const (
	SpeakerUser Speaker = iota
	SpeakerModel
	SpeakerError
)

func (s Speaker) Label() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerModel:
		return "LLM"
	case SpeakerError:
		return "Error"
	}
	return "Unknown"
}

type Entry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
