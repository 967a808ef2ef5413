package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/evallife/llm-chat/internal/types"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const FileName = "settings.json"

const (
	keyAPIKey      = "api_key"
	keyModel       = "model"
	keyMaxTokens   = "max_tokens"
	keyTemperature = "temperature"
	keyTopP        = "top_p"
)

// Presets are the model identifiers suggested by the settings screen. Any
// other identifier is accepted as well.
var Presets = []string{
	"Qwen/Qwen2.5-VL-72B-Instruct",
	"Qwen/Qwen3-8B",
	"THUDM/GLM-Z1-9B-0414",
	"THUDM/GLM-4-9B-0414",
	"deepseek-ai/DeepSeek-R1-Distill-Qwen-7B",
	"Qwen/Qwen2.5-7B-Instruct",
	"Qwen/Qwen2.5-Coder-7B-Instruct",
	"internlm/internlm2_5-7b-chat",
	"Qwen/Qwen2-7B-Instruct",
	"THUDM/glm-4-9b-chat",
}

func Defaults() types.Config {
	return types.Config{
		APIKey:      "",
		Model:       "Qwen/Qwen2.5-VL-72B-Instruct",
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        0.7,
	}
}

// DefaultPath returns the settings file location next to the running binary.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), FileName), nil
}

// Store persists a Config as a JSON file at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// ErrMalformed marks a settings file that exists but cannot be used.
var ErrMalformed = errors.New("malformed settings")

// Load reads the settings file. A missing file yields Defaults() and is not
// created. Keys absent from an existing file keep their default value; a file
// that is not a JSON object, or holds values of the wrong type, is an error.
func (s *Store) Load() (types.Config, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", s.path).Msg("settings file not found, using defaults")
			return Defaults(), nil
		}
		return types.Config{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return types.Config{}, fmt.Errorf("%w: %s is not a JSON object", ErrMalformed, s.path)
	}

	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v, Defaults())

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return types.Config{}, fmt.Errorf("%w: parse %s: %v", ErrMalformed, s.path, err)
	}

	// JSON numbers decode as float64 and mapstructure truncates them into ints.
	if f, ok := v.Get(keyMaxTokens).(float64); ok && f != math.Trunc(f) {
		return types.Config{}, fmt.Errorf("%w: max_tokens %v is not an integer", ErrMalformed, f)
	}

	var cfg types.Config
	strict := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = false }
	if err := v.Unmarshal(&cfg, strict); err != nil {
		return types.Config{}, fmt.Errorf("%w: decode %s: %v", ErrMalformed, s.path, err)
	}
	if err := checkMaxTokens(cfg.MaxTokens); err != nil {
		return types.Config{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	log.Info().Str("path", s.path).Str("model", cfg.Model).Msg("settings loaded")
	return cfg, nil
}

// Save writes every field of cfg, replacing the previous file content.
func (s *Store) Save(cfg types.Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set(keyAPIKey, cfg.APIKey)
	v.Set(keyModel, cfg.Model)
	v.Set(keyMaxTokens, cfg.MaxTokens)
	v.Set(keyTemperature, cfg.Temperature)
	v.Set(keyTopP, cfg.TopP)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	log.Info().Str("path", s.path).Str("model", cfg.Model).Msg("settings saved")
	return nil
}

func setDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault(keyAPIKey, cfg.APIKey)
	v.SetDefault(keyModel, cfg.Model)
	v.SetDefault(keyMaxTokens, cfg.MaxTokens)
	v.SetDefault(keyTemperature, cfg.Temperature)
	v.SetDefault(keyTopP, cfg.TopP)
}
