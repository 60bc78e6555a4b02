package papi

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envHost      = "PAPI_HOST"
	envUsername  = "PAPI_USERNAME"
	envPassword  = "PAPI_PASSWORD"
	envPort      = "PAPI_PORT"
	envTimeout   = "PAPI_TIMEOUT_SECONDS"
	envVerifyTLS = "PAPI_VERIFY_TLS"
	envService   = "PAPI_SERVICE"
	envUserAgent = "PAPI_USER_AGENT"
)

// NewFromEnv initialises a Client from PAPI_* environment variables.
// PAPI_HOST, PAPI_USERNAME and PAPI_PASSWORD are required; PAPI_PORT,
// PAPI_TIMEOUT_SECONDS, PAPI_VERIFY_TLS, PAPI_SERVICE and PAPI_USER_AGENT
// override the defaults. Explicit opts take precedence over the environment.
func NewFromEnv(opts ...Option) (*Client, error) {
	host := strings.TrimSpace(os.Getenv(envHost))
	if host == "" {
		return nil, fmt.Errorf("papi: %s is required", envHost)
	}
	username := strings.TrimSpace(os.Getenv(envUsername))
	if username == "" {
		return nil, fmt.Errorf("papi: %s is required", envUsername)
	}
	password := os.Getenv(envPassword)
	if password == "" {
		return nil, fmt.Errorf("papi: %s is required", envPassword)
	}

	var envOpts []Option

	if raw := strings.TrimSpace(os.Getenv(envPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("papi: invalid %s value %q", envPort, raw)
		}
		envOpts = append(envOpts, WithPort(port))
	}

	if raw := strings.TrimSpace(os.Getenv(envTimeout)); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("papi: invalid %s value %q", envTimeout, raw)
		}
		envOpts = append(envOpts, WithTimeout(time.Duration(seconds)*time.Second))
	}

	if raw := strings.TrimSpace(os.Getenv(envVerifyTLS)); raw != "" {
		verify, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("papi: invalid %s value %q", envVerifyTLS, raw)
		}
		envOpts = append(envOpts, WithTLSVerify(verify))
	}

	if service := strings.TrimSpace(os.Getenv(envService)); service != "" {
		envOpts = append(envOpts, WithService(service))
	}

	if agent := strings.TrimSpace(os.Getenv(envUserAgent)); agent != "" {
		envOpts = append(envOpts, WithUserAgent(agent))
	}

	return New(host, username, password, append(envOpts, opts...)...)
}
