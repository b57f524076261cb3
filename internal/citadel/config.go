package citadel

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// #region config

// Config holds the connection settings for the citadel transport service.
type Config struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string `validate:"required,url"`
	// Token authenticates every episode-scoped call.
	Token string `validate:"required"`
	// Timeout bounds each HTTP round trip.
	Timeout time.Duration `validate:"min=0"`
}

// DefaultConfig returns the production service endpoint. The token has no
// default; it must come from the environment.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://challenge.sphinxhq.com",
		Timeout: 30 * time.Second,
	}
}

var validate = validator.New()

// Validate checks the config for missing or malformed fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("citadel config: %w", err)
	}
	return nil
}

// #endregion
