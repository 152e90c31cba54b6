package config

import "testing"

func validConfig() *Config {
	return &Config{
		HTTPPort:    8085,
		MetricsPort: 8080,
		LogLevel:    "info",
		RedisHost:   "localhost",
		RedisPort:   "6379",
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad http port", func(c *Config) { c.HTTPPort = 0 }},
		{"bad metrics port", func(c *Config) { c.MetricsPort = 70000 }},
		{"port collision", func(c *Config) { c.MetricsPort = c.HTTPPort }},
		{"negative retries", func(c *Config) { c.RedisMaxRetries = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRedisAddr(t *testing.T) {
	if got := validConfig().RedisAddr(); got != "localhost:6379" {
		t.Errorf("RedisAddr = %s", got)
	}
}
