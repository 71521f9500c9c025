// Package config provides configuration management for pubip.
//
// The package uses a Provider interface to abstract configuration loading, with the
// primary implementation being filesystem-based configuration via YAML files.
//
// # Configuration Structure
//
// Configuration is structured as follows:
//
//	socket:
//	  path: /var/run/pubipd.socket    # Unix domain socket path
//	lookup:
//	  timeout: 5s                     # Overall timeout for one lookup
//	  only_https: false               # Skip the DNS strategy entirely
//	  fallback_urls:                  # Extra HTTPS echo services
//	    - https://ifconfig.co/ip
//
// # Basic Usage
//
// Load configuration using the default path (~/.pubip/config.yaml):
//
//	cfg, err := config.New().Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load configuration from a specific path:
//
//	provider := config.NewWithPath(filesys.OS(), "/etc/pubip/config.yaml")
//	cfg, err := provider.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Validation
//
// The package performs validation of loaded configuration:
//   - Socket path must not be empty
//   - Lookup timeout must be at least 100 milliseconds
//   - Fallback URLs must be well-formed https URLs
//
// # Default Configuration
//
// If no configuration file exists, the following defaults are used:
//   - Socket Path: /var/run/pubipd.socket
//   - Lookup Timeout: 5 seconds
//   - Only HTTPS: false, Fallback URLs: none
//
// # Thread Safety
//
// Configuration loading is thread-safe. However, once loaded, the Config
// struct should be treated as immutable. If configuration changes are needed,
// a new Config should be loaded.
//
// # Error Handling
//
// The package defines several error types:
//   - ErrInvalidConfig: Configuration validation failed
//   - ErrNoConfig: Configuration file not found (returns defaults)
//
// The package is designed to be extensible, allowing for additional
// configuration providers to be implemented (e.g., environment variables,
// remote configuration services) by implementing the Provider interface.
package config
