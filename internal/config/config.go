package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration-typed policy knobs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and percentages.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to sign JWTs
	AccessTTLMin  int    // access token time-to-live in minutes
	BcryptCost    int    // bcrypt cost for password hashing
	AdminIdentity string // identity that is seeded with the admin capability at startup

	// Compliance policy knobs.  All have built-in defaults so a bare
	// environment still boots with the standard municipal policy.
	DropThresholdPercent uint64        // consumption drop (%) that triggers confirmation
	PartialSlashPercent  uint64        // deposit share (%) slashed on an automated fraud report
	InterestRatePercent  uint64        // monthly interest (%) applied to retroactive debt
	MonthsLate           uint64        // months of interest assumed for retroactive debt
	UnitRate             uint64        // billing rate per under-reported consumption unit
	ReadingRewardNumer   uint64        // reading reward fraction numerator
	ReadingRewardDenom   uint64        // reading reward fraction denominator
	TokenTTL             time.Duration // declaration token validity window
	InspectionCycle      time.Duration // interval between routine inspections per account
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),             // environment (dev/test/prod)
		Port:          must("APP_PORT"),            // port to bind the HTTP server
		DBUser:        must("DB_USER"),             // database user
		DBPass:        os.Getenv("DB_PASS"),        // database password (empty allowed)
		DBHost:        must("DB_HOST"),             // database host
		DBPort:        must("DB_PORT"),             // database port
		DBName:        must("DB_NAME"),             // database name
		JWTSecret:     must("JWT_SECRET"),          // secret used for signing JWTs
		AccessTTLMin:  mustInt("ACCESS_TOKEN_TTL_MIN"), // TTL for access tokens in minutes
		BcryptCost:    mustInt("BCRYPT_COST"),          // bcrypt cost factor
		AdminIdentity: must("ADMIN_IDENTITY"),          // bootstrap administrator identity

		DropThresholdPercent: uintOr("POLICY_DROP_THRESHOLD_PCT", 50),
		PartialSlashPercent:  uintOr("POLICY_PARTIAL_SLASH_PCT", 50),
		InterestRatePercent:  uintOr("POLICY_INTEREST_RATE_PCT", 5),
		MonthsLate:           uintOr("POLICY_MONTHS_LATE", 3),
		UnitRate:             uintOr("POLICY_UNIT_RATE", 10),
		ReadingRewardNumer:   uintOr("POLICY_READING_REWARD_NUMER", 1),
		ReadingRewardDenom:   uintOr("POLICY_READING_REWARD_DENOM", 10),
		TokenTTL:             durOr("POLICY_TOKEN_TTL", 3*time.Hour),
		InspectionCycle:      durOr("POLICY_INSPECTION_CYCLE", 183*24*time.Hour),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// uintOr reads an optional unsigned integer variable, falling back to a
// default when unset.  A malformed value is fatal rather than silently
// ignored, since policy knobs change money flows.
func uintOr(key string, def uint64) uint64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid uint for %s: %q", key, s)
	}
	return n
}

// durOr reads an optional duration variable (Go syntax, e.g. "3h"),
// falling back to a default when unset.
func durOr(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
