package main

import (
	"fmt"
	"strings"
	"time"

	"communitybot/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Telegram TelegramConfig    `yaml:"telegram"`
	Points   PointsConfig      `yaml:"points"`
	Campaign CampaignConfig    `yaml:"campaign"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramConfig struct {
	BotToken        string  `yaml:"botToken"`
	Debug           bool    `yaml:"debug"`
	AdminIDs        []int64 `yaml:"adminIds"`
	CommunityChatID int64   `yaml:"communityChatId"`
}

type PointsConfig struct {
	Checkin         int           `yaml:"checkin"`
	Screenshot      int           `yaml:"screenshot"`
	ReferralCap     int           `yaml:"referralCap"`
	Referral        int           `yaml:"referral"`
	ClaimTTL        time.Duration `yaml:"claimTtl"`
	PollAwardOnVote bool          `yaml:"pollAwardOnVote"`
	PollCloseAfter  time.Duration `yaml:"pollCloseAfter"`
}

type CampaignConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Window parses the campaign boundaries; both empty means the built-in
// defaults apply.
func (c CampaignConfig) Window() (time.Time, time.Time, error) {
	if c.Start == "" && c.End == "" {
		return time.Time{}, time.Time{}, nil
	}

	start, err := time.Parse("2006-01-02", c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid campaign start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid campaign end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("campaign end %s before start %s", c.End, c.Start)
	}
	return start, end, nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
