package config

import "time"

// DefaultConfig returns the configuration defaults.
// Timeouts follow the original deployment profile: slow page loads get a
// long navigation window while individual element actions stay short.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8000,
			MetricsPort:     9090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		Browser: BrowserConfig{
			Headless:          false,
			Display:           ":99",
			ViewportWidth:     1280,
			ViewportHeight:    720,
			NavigationTimeout: 120 * time.Second,
			ActionTimeout:     5 * time.Second,
		},
		Intervention: InterventionConfig{
			DefaultTimeout: 300 * time.Second,
			CheckInterval:  5 * time.Second,
			Store:          "memory",
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
			KeyPrefix:    "browserpilot:intervention:",
			TTL:          24 * time.Hour,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "browserpilot.db",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
		},
		Auth: AuthConfig{
			AllowQueryAPIKey: true,
		},
		Live: LiveConfig{
			Enabled:       true,
			FrameInterval: 500 * time.Millisecond,
			Quality:       60,
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "browserpilot",
			SampleRate:   1.0,
		},
	}
}
