// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the uservault server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - DatabaseURI: MongoDB connection string.
//   - DatabaseName: MongoDB database holding the users and sessions collections.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: lifetime of issued access tokens.
type Config struct {
	EndpointAddrHTTP            string
	DatabaseURI                 string
	DatabaseName                string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseURI = "mongodb://localhost:27017"
	c.DatabaseName = "uservault"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 30 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
