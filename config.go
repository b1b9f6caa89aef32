package main

import (
	"examguard/config"
)

// Default configuration values
const (
	DefaultPort = "8080"
)

// serverConfig is the API server's environment driven configuration.
type serverConfig struct {
	Addr string
	// StoreEnabled turns on report history (DB_DRIVER / DB_DSN).
	StoreEnabled bool
}

// loadServerConfig reads PORT and REPORT_STORE. The store is on unless
// REPORT_STORE is explicitly false.
func loadServerConfig() serverConfig {
	port := config.GetEnvOrDefault("PORT", DefaultPort)
	storeEnabled := true
	if v := config.GetEnvOrDefault("REPORT_STORE", ""); v != "" {
		storeEnabled = config.GetEnvBool("REPORT_STORE")
	}
	return serverConfig{
		Addr:         ":" + port,
		StoreEnabled: storeEnabled,
	}
}
