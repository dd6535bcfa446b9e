package auth

import (
	"fmt"
	"os"
)

// Supported verifier providers.
const (
	ProviderNone = "none"
	ProviderHMAC = "hmac"
	ProviderOIDC = "oidc"
)

// Config selects how bearer tokens are verified.
type Config struct {
	Provider  string `toml:"provider"`
	Secret    string `toml:"secret"`
	Issuer    string `toml:"issuer"`
	ClientID  string `toml:"client_id"`
	AdminRole string `toml:"admin_role"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider  string
	Secret    string
	Issuer    string
	ClientID  string
	AdminRole string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Secret != "" {
		c.Secret = overlay.Secret
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.AdminRole != "" {
		c.AdminRole = overlay.AdminRole
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderNone
	}
	if c.AdminRole == "" {
		c.AdminRole = "admin"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.Secret != "" {
		if v := os.Getenv(env.Secret); v != "" {
			c.Secret = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.AdminRole != "" {
		if v := os.Getenv(env.AdminRole); v != "" {
			c.AdminRole = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderNone:
	case ProviderHMAC:
		if len(c.Secret) < 32 {
			return fmt.Errorf("secret must be at least 32 bytes")
		}
	case ProviderOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id required")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	return nil
}
