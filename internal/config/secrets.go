package config

import (
	"net/url"
	"os"
	"strings"
)

// SecretSource represents where a secret setting comes from.
type SecretSource string

const (
	SecretSourceEnv    SecretSource = "env"
	SecretSourceConfig SecretSource = "config"
	SecretSourceNone   SecretSource = "none"
)

// SecretStatus represents the status of a sensitive setting.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "postgres://nsefolio:***@db:5432/nsefolio"
}

// CheckSecrets returns the status of all sensitive settings.
func CheckSecrets(cfg *Config) []SecretStatus {
	return []SecretStatus{
		checkSecret("Storage DSN", cfg.Storage.DSN, envPrefix+"_STORAGE_DSN", maskDSN),
	}
}

// checkSecret checks if a setting is set and where it came from.
func checkSecret(name, value, envVar string, mask func(string) string) SecretStatus {
	status := SecretStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value == "" {
		status.Source = SecretSourceNone
		return status
	}
	if os.Getenv(envVar) != "" {
		status.Source = SecretSourceEnv
	} else {
		status.Source = SecretSourceConfig
	}
	status.Masked = mask(value)
	return status
}

// maskDSN hides the password of a connection string. URL-style DSNs keep
// everything but the password; key=value DSNs get their password= field masked.
// Plain file paths are returned unchanged.
func maskDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return maskKey(dsn)
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
		return u.String()
	}
	if strings.Contains(dsn, "password=") {
		fields := strings.Fields(dsn)
		for i, f := range fields {
			if strings.HasPrefix(f, "password=") {
				fields[i] = "password=***"
			}
		}
		return strings.Join(fields, " ")
	}
	return dsn
}

// maskKey masks a value for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
