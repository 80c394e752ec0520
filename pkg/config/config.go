package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Analytics AnalyticsConfig
	Assistant AssistantConfig
	Branch    BranchConfig
	Poll      PollConfig
	Voice     VoiceConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type AnalyticsConfig struct {
	BaseURL    string
	TimeoutSec int
	KPILimit   int
	StreamPath string
}

type AssistantConfig struct {
	BaseURL    string
	TimeoutSec int
}

// BranchConfig carries the fixed identifiers scoping every upstream request.
// They are configuration, not constants, so one binary can serve any branch.
type BranchConfig struct {
	Code           string
	ActorID        string
	ConversationID string
	UserRole       string
}

type PollConfig struct {
	IntervalSec int
}

type VoiceConfig struct {
	CaptureCommand string
	CaptureArgs    []string
	PlayCommand    string
	PlayArgs       []string
	SampleRate     int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/branch-dashboard")

	viper.SetEnvPrefix("DASHBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("analytics.baseURL", "http://localhost:8000")
	viper.SetDefault("analytics.timeoutSec", 10)
	viper.SetDefault("analytics.kpiLimit", 20)
	viper.SetDefault("analytics.streamPath", "/video/stream")

	viper.SetDefault("assistant.baseURL", "http://localhost:8001")
	viper.SetDefault("assistant.timeoutSec", 30)

	viper.SetDefault("branch.code", "SUC001")
	viper.SetDefault("branch.actorID", "dashboard-operator")
	viper.SetDefault("branch.conversationID", "dashboard-session")
	viper.SetDefault("branch.userRole", "manager")

	viper.SetDefault("poll.intervalSec", 30)

	viper.SetDefault("voice.captureCommand", "arecord")
	viper.SetDefault("voice.captureArgs", []string{"-f", "S16_LE", "-c", "1", "-t", "wav", "-q", "-"})
	viper.SetDefault("voice.playCommand", "aplay")
	viper.SetDefault("voice.playArgs", []string{"-q", "-"})
	viper.SetDefault("voice.sampleRate", 16000)

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
