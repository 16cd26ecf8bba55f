package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = "3000"
	defaultUploadsDir     = "uploads"
	defaultMaxUploadBytes = 25 << 20
	defaultVoiceRateLimit = 30
	defaultVoiceRSSURL    = "https://api.voicerss.org/"
	defaultChatModel      = "gpt-4o-mini"
	defaultSTTModel       = "whisper-1"
)

type OpenAI struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	STTModel    string
	STTLanguage string
}

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// Enabled reports whether enough is set to talk to a bucket.
func (s S3) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type Telegram struct {
	BotToken    string
	AdminChatID int64
}

func (t Telegram) Enabled() bool {
	return t.BotToken != "" && t.AdminChatID != 0
}

type Config struct {
	Port   string
	WSPort string

	OpenAI OpenAI

	VoiceRSSKey string
	VoiceRSSURL string

	UploadsDir     string
	MaxUploadBytes int64
	VoiceRateLimit int

	DatabaseURL string
	S3          S3
	Telegram    Telegram
	AdminToken  string
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getenv("PORT", defaultPort),
		WSPort: os.Getenv("WS_PORT"),
		OpenAI: OpenAI{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			ChatModel:   getenv("OPENAI_CHAT_MODEL", defaultChatModel),
			STTModel:    getenv("OPENAI_STT_MODEL", defaultSTTModel),
			STTLanguage: os.Getenv("OPENAI_STT_LANGUAGE"),
		},
		VoiceRSSKey: os.Getenv("VOICERSS_KEY"),
		VoiceRSSURL: getenv("VOICERSS_URL", defaultVoiceRSSURL),
		UploadsDir:  getenv("UPLOADS_DIR", defaultUploadsDir),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		S3: S3{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
		},
		Telegram: Telegram{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	var err error
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}

	limit, err := getInt64("VOICE_RATE_LIMIT", defaultVoiceRateLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("VOICE_RATE_LIMIT must be positive, got %d", limit)
	}
	cfg.VoiceRateLimit = int(limit)

	if cfg.Telegram.AdminChatID, err = getInt64("TELEGRAM_ADMIN_CHAT_ID", 0); err != nil {
		return nil, err
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if cfg.WSPort != "" && cfg.WSPort == cfg.Port {
		return nil, fmt.Errorf("WS_PORT must differ from PORT (%s)", cfg.Port)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
