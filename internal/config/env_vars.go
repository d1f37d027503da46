package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	envVar          = "ENV"
	logLevelVar     = "LOG_LEVEL"
	bootstrapVar    = "BOOTSTRAP_FILE"
	defaultEnv      = "DEV"
	defaultLogLevel = "info"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "OAuth20 Server")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, defaultEnv)
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, defaultLogLevel)
}

// GetBootstrapFile returns the path of an optional JSON seed file holding scopes,
// client applications and users to create at start up.
func (EnvVars) GetBootstrapFile() string {
	return GetEnv(bootstrapVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the integer value of envVar, or defaultValue when unset or unparsable.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts Go durations ("15m") as well as plain seconds ("900").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
