package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/evallife/llm-chat/internal/types"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Edits holds the raw text of the editable settings fields.
type Edits struct {
	APIKey      string
	Model       string
	MaxTokens   string
	Temperature string
}

func EditsFrom(cfg types.Config) Edits {
	return Edits{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   strconv.Itoa(cfg.MaxTokens),
		Temperature: strconv.FormatFloat(cfg.Temperature, 'f', -1, 64),
	}
}

// ApplyEdits validates e and returns cfg with the edited fields replaced.
// Either every field is applied or cfg comes back untouched. TopP has no
// editable field and is always carried over.
func ApplyEdits(cfg types.Config, e Edits) (types.Config, error) {
	maxTokens, err := strconv.Atoi(strings.TrimSpace(e.MaxTokens))
	if err != nil {
		return cfg, fmt.Errorf("%w: max tokens %q is not an integer", ErrInvalidSettings, e.MaxTokens)
	}
	if err := checkMaxTokens(maxTokens); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(e.Temperature), 64)
	if err != nil {
		return cfg, fmt.Errorf("%w: temperature %q is not a number", ErrInvalidSettings, e.Temperature)
	}

	updated := cfg
	updated.APIKey = e.APIKey
	updated.Model = e.Model
	updated.MaxTokens = maxTokens
	updated.Temperature = temperature
	return updated, nil
}

func checkMaxTokens(n int) error {
	if n <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", n)
	}
	return nil
}
