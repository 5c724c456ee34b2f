package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultEnvFile = ".env"

// Config stores runtime configuration for the push-to-talk client.
type Config struct {
	API   APIConfig
	Audio AudioConfig
	Log   LogConfig
}

type APIConfig struct {
	BaseURL        string
	TranscribePath string
	ChatPath       string
	SynthesizePath string
}

type AudioConfig struct {
	RecorderCommand string
	PlayerCommand   string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load resolves configuration from the process environment, an optional
// dotenv file and defaults. Process variables win over the file.
func Load() (Config, error) {
	path := envOrDefault(processEnv{}, "VOICEPTT_ENV_FILE", defaultEnvFile)
	file, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		file = nil
	}
	src := layeredEnv{file: file}

	cfg := Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(envOrDefault(src, "VOICEPTT_API_BASE", "http://127.0.0.1:8000"), "/"),
			TranscribePath: envOrDefault(src, "VOICEPTT_ASR_PATH", "/asr"),
			ChatPath:       envOrDefault(src, "VOICEPTT_CHAT_PATH", "/chat"),
			SynthesizePath: envOrDefault(src, "VOICEPTT_TTS_PATH", "/tts"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault(src, "VOICEPTT_FFMPEG_COMMAND", "ffmpeg"),
			PlayerCommand:   envOrDefault(src, "VOICEPTT_FFPLAY_COMMAND", "ffplay"),
			InputFormat:     envOrDefault(src, "VOICEPTT_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice: firstNonEmpty(
				src.get("VOICEPTT_AUDIO_INPUT_DEVICE"),
				src.get("PULSE_SOURCE"),
				"default",
			),
			SampleRate: envOrDefaultInt(src, "VOICEPTT_SAMPLE_RATE", 48000),
			Channels:   envOrDefaultInt(src, "VOICEPTT_CHANNELS", 1),
			ChunkSize:  envOrDefaultInt(src, "VOICEPTT_AUDIO_CHUNK_SIZE", 4096),
		},
		Log: LogConfig{
			Level:       strings.ToLower(envOrDefault(src, "VOICEPTT_LOG_LEVEL", "info")),
			Development: envOrDefaultBool(src, "VOICEPTT_LOG_DEV", false),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 48000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// NewLogger builds the diagnostics logger described by cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

type source interface {
	get(key string) string
}

type processEnv struct{}

func (processEnv) get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

type layeredEnv struct {
	file map[string]string
}

func (e layeredEnv) get(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(e.file[key])
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(src source, key string, fallback string) string {
	value := src.get(key)
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(src source, key string, fallback int) int {
	value := src.get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(src source, key string, fallback bool) bool {
	value := strings.ToLower(src.get(key))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
