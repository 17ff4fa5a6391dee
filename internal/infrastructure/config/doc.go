// Package config provides configuration loading for Portal Core.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by PORTAL_* environment variables. The loaded
// Config is validated before use; an invalid configuration aborts startup.
//
// # Sections
//
//   - portal:   USB device identifiers, simulated-driver switch, poll
//     timeout, and the I/O fault retry policy
//   - colors:   pad feedback palette (0-100 channel scale)
//   - tags:     declarative tag-definition file for bulk import
//   - database: SQLite settings for the tag store
//   - mqtt:     optional event mirror broker settings
//   - influxdb: optional poll-loop metrics settings
//   - api:      HTTP API server settings
//   - logging:  level, format, and output destination
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    // configuration problems are fatal at startup
//	}
package config
