package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

// Config holds the application settings registered next to the go-core
// component configs.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	BackendURL              string
	BackendTimeoutSeconds   int
	BackendFailureThreshold int
	BackendOpenSeconds      int

	CriticalPageSize  int
	NormalPageSize    int
	AllPageSize       int
	DirectoryPageSize int

	SessionTTLMinutes int
	MaxSessions       int
	SecureCookies     bool
	APIToken          string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "dashboard listen TCP port (1..65535)")

	fs.StringVar(&c.BackendURL, "backend-url", "http://localhost:8000/api", "base URL of the clinical data backend")
	fs.IntVar(&c.BackendTimeoutSeconds, "backend-timeout-seconds", 10, "timeout of one backend request (1..120)")
	fs.IntVar(&c.BackendFailureThreshold, "backend-failure-threshold", 5, "consecutive backend failures that open the circuit (1..100)")
	fs.IntVar(&c.BackendOpenSeconds, "backend-open-seconds", 30, "seconds the backend circuit stays open before probing (1..600)")

	fs.IntVar(&c.CriticalPageSize, "critical-page-size", 10, "rows per page of the critical cohort (1..200)")
	fs.IntVar(&c.NormalPageSize, "normal-page-size", 10, "rows per page of the normal cohort (1..200)")
	fs.IntVar(&c.AllPageSize, "all-page-size", 20, "rows per page of the all-patients overview (1..200)")
	fs.IntVar(&c.DirectoryPageSize, "directory-page-size", 20, "rows per page of the patient directory (1..200)")

	fs.IntVar(&c.SessionTTLMinutes, "session-ttl-minutes", 30, "idle minutes before a viewer session and its paging state expire (1..1440)")
	fs.IntVar(&c.MaxSessions, "max-sessions", 10000, "viewer sessions held in memory; the least recently used is evicted beyond this (1..1000000)")
	fs.BoolVar(&c.SecureCookies, "secure-cookies", false, "mark the session cookie Secure (enable behind TLS)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on /api/v1 (empty = open)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if err := validateBackendURL(c.BackendURL); err != nil {
		errs = append(errs, err)
	}
	errs = appendRange(errs, "BACKEND_TIMEOUT_SECONDS", c.BackendTimeoutSeconds, 1, 120)
	errs = appendRange(errs, "BACKEND_FAILURE_THRESHOLD", c.BackendFailureThreshold, 1, 100)
	errs = appendRange(errs, "BACKEND_OPEN_SECONDS", c.BackendOpenSeconds, 1, 600)

	errs = appendRange(errs, "CRITICAL_PAGE_SIZE", c.CriticalPageSize, 1, 200)
	errs = appendRange(errs, "NORMAL_PAGE_SIZE", c.NormalPageSize, 1, 200)
	errs = appendRange(errs, "ALL_PAGE_SIZE", c.AllPageSize, 1, 200)
	errs = appendRange(errs, "DIRECTORY_PAGE_SIZE", c.DirectoryPageSize, 1, 200)

	errs = appendRange(errs, "SESSION_TTL_MINUTES", c.SessionTTLMinutes, 1, 1440)
	errs = appendRange(errs, "MAX_SESSIONS", c.MaxSessions, 1, 1000000)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func appendRange(errs []error, name string, v, lo, hi int) []error {
	if v < lo || v > hi {
		return append(errs, fmt.Errorf("invalid %s %d (must be %d..%d)", name, v, lo, hi))
	}
	return errs
}

func validateBackendURL(raw string) error {
	if raw == "" {
		return errors.New("BACKEND_URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BACKEND_URL %q (scheme must be http or https)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL %q (missing host)", raw)
	}
	return nil
}

// PageSizes returns the configured page size of every cohort.
func (c *Config) PageSizes() map[clinical.Cohort]int {
	return map[clinical.Cohort]int{
		clinical.CohortCritical: c.CriticalPageSize,
		clinical.CohortNormal:   c.NormalPageSize,
		clinical.CohortAll:      c.AllPageSize,
	}
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c *Config) BackendOpenTimeout() time.Duration {
	return time.Duration(c.BackendOpenSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
