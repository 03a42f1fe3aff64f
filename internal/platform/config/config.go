package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	CRM       CRMConfig       `mapstructure:"crm"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Email     EmailConfig     `mapstructure:"email"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Frontend  FrontendConfig  `mapstructure:"frontend"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type OAuthConfig struct {
	Slack  ProviderConfig `mapstructure:"slack"`
	Google ProviderConfig `mapstructure:"google"`
	Zoho   ProviderConfig `mapstructure:"zoho"`
}

type ProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	Scopes       string `mapstructure:"scopes"`
}

type CRMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Module  string `mapstructure:"module"`
}

type ExtractorConfig struct {
	// Mode selects the extraction strategy: "heuristic" or "llm".
	Mode     string `mapstructure:"mode"`
	HFToken  string `mapstructure:"hf_token"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type EmailConfig struct {
	SMTP          SMTPConfig `mapstructure:"smtp"`
	NotifyAddress string     `mapstructure:"notify_address"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type PipelineConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	DedupCapacity int           `mapstructure:"dedup_capacity"`
}

type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
