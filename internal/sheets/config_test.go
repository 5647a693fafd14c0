package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	oauth := Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "token", BatchSize: 100, RetryAttempts: 3, RetryDelay: time.Second}
	service := Config{ServiceAccountPath: "/path/to/key.json", BatchSize: 100, RetryAttempts: 3, RetryDelay: time.Second}

	tests := []struct {
		name   string
		errMsg string
		config func() Config
	}{
		{name: "valid oauth config", config: func() Config { return oauth }},
		{name: "valid service account config", config: func() Config { return service }},
		{
			name:   "partial oauth credentials",
			errMsg: "no authentication method configured",
			config: func() Config { c := oauth; c.ClientSecret = ""; return c },
		},
		{
			name:   "multiple auth methods",
			errMsg: "multiple authentication methods configured",
			config: func() Config { c := oauth; c.ServiceAccountPath = "/key.json"; return c },
		},
		{
			name:   "invalid batch size",
			errMsg: "batch size must be positive",
			config: func() Config { c := service; c.BatchSize = 0; return c },
		},
		{
			name:   "negative retry attempts",
			errMsg: "retry attempts cannot be negative",
			config: func() Config { c := service; c.RetryAttempts = -1; return c },
		},
		{
			name:   "negative retry delay",
			errMsg: "retry delay cannot be negative",
			config: func() Config { c := service; c.RetryDelay = -time.Second; return c },
		},
		{
			name:   "zero retries are valid",
			config: func() Config { c := service; c.RetryAttempts = 0; c.RetryDelay = 0; return c },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config()
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
