// Package config provides configuration structures and utilities for
// trackerscan. It defines the scan options collected from CLI flags, the
// optional .trackerscan YAML file with per-site settings and extra tool
// signatures, and .env loading for the target URL.
package config
