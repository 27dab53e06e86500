package envvars

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	Environment         = "ENVIRONMENT"
	Port                = "PORT"
	LogLevel            = "LOG_LEVEL"
	StoreBackend        = "STORE_BACKEND"
	DatabaseURL         = "DATABASE_URL"
	GCPProject          = "GOOGLE_CLOUD_PROJECT"
	FirebaseCredentials = "FIREBASE_CREDENTIALS_JSON"
	StorageBucket       = "STORAGE_BUCKET"
	AuthProvider        = "AUTH_PROVIDER"
	GoogleClientID      = "GOOGLE_CLIENT_ID"
	InsecureDecode      = "INSECURE_DECODE"
	AllowTempAdmin      = "ALLOW_TEMP_ADMIN"
	AdminEmails         = "ADMIN_EMAILS"
	SessionTTL          = "SESSION_TTL"
	SendGridAPIKey      = "SENDGRID_API_KEY"
	SendGridBaseURL     = "SENDGRID_BASE_URL"
	MailFrom            = "MAIL_FROM"
	CORSOrigins         = "CORS_ORIGINS"
)

const (
	DevEnv        = "dev"
	ProductionEnv = "production"

	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"

	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

const (
	defaultProject  = "tritonthenix"
	defaultClientID = "427440820094-2g565030h0k2t080koick8ntbm54m10n.apps.googleusercontent.com"
)

// DefaultAdminEmails is used when ADMIN_EMAILS is unset.
var DefaultAdminEmails = []string{
	"example@ucsd.edu",
	"admin@tritonthenix.com",
	"cskeoch@ucsd.edu",
	"jweston@ucsd.edu",
	"r1wan@ucsd.edu",
	"lseverino@ucsd.edu",
	"socarvalho@ucsd.edu",
	"jgh003@ucsd.edu",
}

type Env struct {
	Environment         string
	Port                string
	LogLevel            string
	StoreBackend        string
	DatabaseURL         string
	GCPProject          string
	FirebaseCredentials string
	StorageBucket       string
	AuthProvider        string
	GoogleClientID      string
	InsecureDecode      bool
	AllowTempAdmin      bool
	AdminEmails         []string
	SessionTTL          time.Duration
	SendGridAPIKey      string
	SendGridBaseURL     string
	MailFrom            string
	CORSOrigins         []string
}

func lookup(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func list(name string, fallback []string) []string {
	v := lookup(name, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetEvn reads the configuration from the process environment.
func GetEvn() (Env, error) {
	env := Env{
		Environment:         strings.ToLower(lookup(Environment, DevEnv)),
		Port:                lookup(Port, "8080"),
		LogLevel:            lookup(LogLevel, "info"),
		StoreBackend:        strings.ToLower(lookup(StoreBackend, BackendMemory)),
		DatabaseURL:         lookup(DatabaseURL, ""),
		GCPProject:          lookup(GCPProject, defaultProject),
		FirebaseCredentials: lookup(FirebaseCredentials, ""),
		StorageBucket:       lookup(StorageBucket, ""),
		AuthProvider:        strings.ToLower(lookup(AuthProvider, ProviderGoogle)),
		GoogleClientID:      lookup(GoogleClientID, defaultClientID),
		AdminEmails:         list(AdminEmails, DefaultAdminEmails),
		SessionTTL:          24 * time.Hour,
		SendGridAPIKey:      lookup(SendGridAPIKey, ""),
		SendGridBaseURL:     lookup(SendGridBaseURL, ""),
		MailFrom:            lookup(MailFrom, ""),
		CORSOrigins:         list(CORSOrigins, nil),
	}
	var err error
	if env.InsecureDecode, err = parseBool(InsecureDecode); err != nil {
		return Env{}, err
	}
	if env.AllowTempAdmin, err = parseBool(AllowTempAdmin); err != nil {
		return Env{}, err
	}
	if v := lookup(SessionTTL, ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return Env{}, fmt.Errorf("%s must be a positive duration, got %q", SessionTTL, v)
		}
		env.SessionTTL = ttl
	}
	return env, env.Validate()
}

func parseBool(name string) (bool, error) {
	v := lookup(name, "")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

// Validate rejects combinations that cannot run.
func (e Env) Validate() error {
	switch e.StoreBackend {
	case BackendMemory, BackendFirestore:
	case BackendPostgres:
		if e.DatabaseURL == "" {
			return fmt.Errorf("%s is required when %s=%s", DatabaseURL, StoreBackend, BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown %s %q", StoreBackend, e.StoreBackend)
	}
	switch e.AuthProvider {
	case ProviderGoogle, ProviderFirebase:
	default:
		return fmt.Errorf("unknown %s %q", AuthProvider, e.AuthProvider)
	}
	if !IsDev(e) && (e.InsecureDecode || e.AllowTempAdmin) {
		return fmt.Errorf("%s and %s are only allowed in %s", InsecureDecode, AllowTempAdmin, DevEnv)
	}
	return nil
}

func IsProd(env Env) bool {
	return env.Environment == ProductionEnv
}

func IsDev(env Env) bool {
	return env.Environment == DevEnv
}
