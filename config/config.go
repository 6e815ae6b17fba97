package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Port the API server listens on
	Port string `env:"PORT" envDefault:"8080"`

	// Repliers MLS API access
	MLS struct {
		BaseURL string `env:"REPLIERS_BASE_URL" envDefault:"https://api.repliers.io"`
		APIKey  string `env:"REPLIERS_API_KEY"`
		County  string `env:"MLS_COUNTY" envDefault:"Nantucket"`
	}

	// OpenAI chat assistant
	OpenAI struct {
		APIKey string `env:"OPENAI_API_KEY"`
		Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	}

	// Lead/contact email delivery via Resend
	Email struct {
		APIKey    string `env:"RESEND_API_KEY"`
		From      string `env:"LEAD_FROM" envDefault:"Nantucket Houses <onboarding@resend.dev>"`
		Recipient string `env:"LEAD_RECIPIENT" envDefault:"stephen@maury.net"`
	}

	// Meta page posting for market updates. PostHour enables the daily
	// scheduled post when set to an hour of day (0-23); -1 disables it.
	Meta struct {
		PageID      string `env:"META_PAGE_ID"`
		AccessToken string `env:"META_PAGE_ACCESS_TOKEN"`
		PostHour    int    `env:"MARKET_UPDATE_HOUR" envDefault:"-1"`
	}

	// Public site URL appended to social posts
	SiteURL string `env:"SITE_URL" envDefault:"https://nantuckethouses.com"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
