// Package config loads the runtime configuration shared by the PostSync binaries.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const (
	DefaultMaxIterations = 1
	DefaultEventBus      = "gochannel"
)

type Config struct {
	DatabaseURL      string `validate:"required"`
	RedisURL         string `validate:"omitempty,url"`
	EventBus         string `validate:"oneof=gochannel kafka"`
	KafkaBrokers     string `validate:"required_if=EventBus kafka"`
	OpenAIAPIKey     string `validate:"required"`
	OpenAIModel      string
	OpenAIBaseURL    string `validate:"omitempty,url"`
	GeminiAPIKey     string
	GeminiImageModel string
	LinkedInAPIURL   string `validate:"omitempty,url"`
	ImageDir         string
	MaxIterations    int `validate:"min=1,max=10"`
	LogLevel         string
	LogFormat        string `validate:"omitempty,oneof=text json"`
	OTelEnabled      bool
}

// LoadDotEnv loads .env files into the process environment. Variables that are
// already set win, and missing files are ignored.
func LoadDotEnv(filenames ...string) {
	for _, filename := range filenames {
		_ = godotenv.Load(filename)
	}
}

// Flags are the flags shared by every binary that runs the workflow.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL (postgres://... or a file store path)",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the credential cache (optional)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   DefaultEventBus,
			Sources: cli.EnvVars("EVENT_BUS"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "OpenAI API key",
			Sources: cli.EnvVars("OPENAI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Usage:   "OpenAI chat model",
			Value:   "gpt-4o",
			Sources: cli.EnvVars("OPENAI_MODEL"),
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Usage:   "OpenAI compatible API base URL",
			Sources: cli.EnvVars("OPENAI_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "Gemini API key; image generation is skipped when empty",
			Sources: cli.EnvVars("GEMINI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "gemini-image-model",
			Usage:   "Gemini image generation model",
			Sources: cli.EnvVars("GEMINI_IMAGE_MODEL"),
		},
		&cli.StringFlag{
			Name:    "linkedin-api-url",
			Usage:   "LinkedIn API base URL",
			Sources: cli.EnvVars("LINKEDIN_API_URL"),
		},
		&cli.StringFlag{
			Name:    "image-dir",
			Usage:   "Directory for transient image files (defaults to the OS temp dir)",
			Sources: cli.EnvVars("IMAGE_DIR"),
		},
		&cli.IntFlag{
			Name:    "max-iterations",
			Usage:   "Reviewer passes before approval is forced",
			Value:   DefaultMaxIterations,
			Sources: cli.EnvVars("MAX_ITERATIONS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP (configured by OTEL_EXPORTER_OTLP_*)",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// FromCommand reads the flags declared by Flags.
func FromCommand(command *cli.Command) Config {
	return Config{
		DatabaseURL:      command.String("database-url"),
		RedisURL:         command.String("redis-url"),
		EventBus:         command.String("event-bus"),
		KafkaBrokers:     command.String("kafka-brokers"),
		OpenAIAPIKey:     command.String("openai-api-key"),
		OpenAIModel:      command.String("openai-model"),
		OpenAIBaseURL:    command.String("openai-base-url"),
		GeminiAPIKey:     command.String("gemini-api-key"),
		GeminiImageModel: command.String("gemini-image-model"),
		LinkedInAPIURL:   command.String("linkedin-api-url"),
		ImageDir:         command.String("image-dir"),
		MaxIterations:    int(command.Int("max-iterations")),
		LogLevel:         command.String("log-level"),
		LogFormat:        command.String("log-format"),
		OTelEnabled:      command.Bool("otel"),
	}
}

func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}
