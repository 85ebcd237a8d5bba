// Package config loads and validates the sensor hub configuration.
//
// Configuration is read from a YAML file with hardcoded defaults applied
// first and CONSUMO_* environment variables applied last. The listening
// port and the session token signing secret both live here so no component
// needs process-wide constants.
package config
