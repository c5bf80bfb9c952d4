package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	Caption CaptionConfig
	Fetch   FetchConfig
	Speech  SpeechConfig
	Audio   AudioConfig
	Minio   MinioConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8000"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"3m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
	AllowedOrigins  []string      `env:"SERVER_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// OpenAIConfig configures the chat model that turns captions into stories.
// Any OpenAI-compatible endpoint works; the default points at Mistral.
type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"mistral-large-latest"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"2m"`
}

type CaptionConfig struct {
	Backend      string        `env:"CAPTION_BACKEND" envDefault:"huggingface"`
	Model        string        `env:"CAPTION_MODEL" envDefault:"Salesforce/blip-image-captioning-base"`
	HFToken      string        `env:"HF_API_TOKEN"`
	InferenceURL string        `env:"HF_INFERENCE_URL" envDefault:"https://api-inference.huggingface.co/models"`
	HubURL       string        `env:"HF_HUB_URL" envDefault:"https://huggingface.co/api/models"`
	Serialize    bool          `env:"CAPTION_SERIALIZE" envDefault:"false"`
	Timeout      time.Duration `env:"CAPTION_TIMEOUT" envDefault:"1m"`

	// Used only when Backend is "openai".
	VisionModel string `env:"CAPTION_VISION_MODEL" envDefault:"gpt-4o-mini"`
	APIKey      string `env:"CAPTION_OPENAI_API_KEY"`
	BaseURL     string `env:"CAPTION_OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

type FetchConfig struct {
	Timeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxBytes  int64         `env:"FETCH_MAX_BYTES" envDefault:"20971520"`
	MaxPixels int64         `env:"FETCH_MAX_PIXELS" envDefault:"50000000"`
}

type SpeechConfig struct {
	Backend   string        `env:"SPEECH_BACKEND" envDefault:"google"`
	Language  string        `env:"SPEECH_LANG" envDefault:"en"`
	GoogleURL string        `env:"SPEECH_GOOGLE_URL" envDefault:"https://translate.google.com/translate_tts"`
	Timeout   time.Duration `env:"SPEECH_TIMEOUT" envDefault:"30s"`

	APIKey  string `env:"SPEECH_OPENAI_API_KEY"`
	BaseURL string `env:"SPEECH_OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"SPEECH_OPENAI_MODEL" envDefault:"tts-1"`
	Voice   string `env:"SPEECH_OPENAI_VOICE" envDefault:"alloy"`
}

type AudioConfig struct {
	Dir string `env:"AUDIO_DIR" envDefault:"audio_outputs"`
	// Zero keeps files forever.
	TTL           time.Duration `env:"AUDIO_TTL" envDefault:"0s"`
	SweepInterval time.Duration `env:"AUDIO_SWEEP_INTERVAL" envDefault:"10m"`
}

type MinioConfig struct {
	Enable     bool   `env:"MINIO_ENABLE"`
	Endpoint   string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey  string `env:"MINIO_ACCESS_KEY"`
	SecretKey  string `env:"MINIO_SECRET_KEY"`
	BucketName string `env:"MINIO_BUCKET" envDefault:"narrations"`
	Region     string `env:"MINIO_REGION" envDefault:"us-east-1"`
	UseSSL     bool   `env:"MINIO_USE_SSL"`
}

// Load reads the optional env file (ENV_FILE, default .env) and then parses
// the process environment. Variables already set in the process win.
func Load() (*Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
