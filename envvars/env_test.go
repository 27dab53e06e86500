package envvars

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestGetEvn(t *testing.T) {
	// Backup and defer restore of environment variables
	backup := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range backup {
			pair := splitEnv(env)
			os.Setenv(pair[0], pair[1])
		}
	}()

	t.Run("all env vars set", func(t *testing.T) {
		os.Clearenv()
		os.Setenv(Environment, "Production")
		os.Setenv(Port, "9000")
		os.Setenv(LogLevel, "debug")
		os.Setenv(StoreBackend, "postgres")
		os.Setenv(DatabaseURL, "postgres://localhost/tt")
		os.Setenv(GCPProject, "tt-test")
		os.Setenv(FirebaseCredentials, "{}")
		os.Setenv(StorageBucket, "tt-media")
		os.Setenv(AuthProvider, "firebase")
		os.Setenv(GoogleClientID, "client")
		os.Setenv(AdminEmails, " a@x.com, ,b@x.com ")
		os.Setenv(SessionTTL, "2h")
		os.Setenv(SendGridAPIKey, "sg")
		os.Setenv(SendGridBaseURL, "http://sg")
		os.Setenv(MailFrom, "team@x.com")
		os.Setenv(CORSOrigins, "https://tritonthenix.com")

		expected := Env{
			Environment:         ProductionEnv,
			Port:                "9000",
			LogLevel:            "debug",
			StoreBackend:        BackendPostgres,
			DatabaseURL:         "postgres://localhost/tt",
			GCPProject:          "tt-test",
			FirebaseCredentials: "{}",
			StorageBucket:       "tt-media",
			AuthProvider:        ProviderFirebase,
			GoogleClientID:      "client",
			AdminEmails:         []string{"a@x.com", "b@x.com"},
			SessionTTL:          2 * time.Hour,
			SendGridAPIKey:      "sg",
			SendGridBaseURL:     "http://sg",
			MailFrom:            "team@x.com",
			CORSOrigins:         []string{"https://tritonthenix.com"},
		}

		got, err := GetEvn()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("GetEvn() = %+v, want %+v", got, expected)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Clearenv()
		got, err := GetEvn()
		if err != nil {
			t.Fatal(err)
		}
		if got.Environment != DevEnv || got.StoreBackend != BackendMemory || got.AuthProvider != ProviderGoogle {
			t.Errorf("defaults = %+v", got)
		}
		if got.SessionTTL != 24*time.Hour || got.Port != "8080" {
			t.Errorf("SessionTTL = %v, Port = %q", got.SessionTTL, got.Port)
		}
		if !reflect.DeepEqual(got.AdminEmails, DefaultAdminEmails) {
			t.Errorf("AdminEmails = %v", got.AdminEmails)
		}
	})

	errorCases := []struct {
		name string
		vars map[string]string
	}{
		{"postgres without url", map[string]string{StoreBackend: "postgres"}},
		{"unknown backend", map[string]string{StoreBackend: "mongo"}},
		{"unknown provider", map[string]string{AuthProvider: "github"}},
		{"bad ttl", map[string]string{SessionTTL: "soon"}},
		{"bad bool", map[string]string{AllowTempAdmin: "maybe"}},
		{"temp admin in production", map[string]string{Environment: ProductionEnv, AllowTempAdmin: "true"}},
		{"insecure decode in production", map[string]string{Environment: ProductionEnv, InsecureDecode: "1"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.vars {
				os.Setenv(k, v)
			}
			if _, err := GetEvn(); err == nil {
				t.Error("GetEvn() succeeded, want error")
			}
		})
	}
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want bool
	}{
		{"production env", Env{Environment: ProductionEnv}, true},
		{"dev env", Env{Environment: DevEnv}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProd(tt.env); got != tt.want {
				t.Errorf("IsProd() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	tests := []struct {
		name string
		env  Env
		want bool
	}{
		{"production env", Env{Environment: ProductionEnv}, false},
		{"dev env", Env{Environment: DevEnv}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDev(tt.env); got != tt.want {
				t.Errorf("IsDev() = %v, want %v", got, tt.want)
			}
		})
	}
}

func splitEnv(env string) []string {
	for i := 0; i < len(env); i++ {
		if env[i] == '=' {
			return []string{env[:i], env[i+1:]}
		}
	}
	return []string{"", ""}
}
