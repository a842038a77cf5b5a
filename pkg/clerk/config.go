package clerk

// DefaultBaseURL is Clerk's Backend API root.
const DefaultBaseURL = "https://api.clerk.com/v1"

// Config represents the configuration for the Clerk Backend API client
type Config struct {
	// SecretKey authenticates server-side calls (sk_live_... / sk_test_...)
	SecretKey string

	// BaseURL is the Backend API root, DefaultBaseURL when empty
	BaseURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return nil
}
