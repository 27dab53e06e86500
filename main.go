package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	ginmiddleware "github.com/oapi-codegen/gin-middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"google.golang.org/api/option"

	"tritonthenix/api"
	"tritonthenix/clients/gcp"
	"tritonthenix/clients/postgres"
	"tritonthenix/clients/sendgrid"
	"tritonthenix/envvars"
	"tritonthenix/services/event"
	"tritonthenix/services/mail"
	"tritonthenix/services/profile"
	"tritonthenix/services/session"
	"tritonthenix/services/user"
	"tritonthenix/validator"
)

var pictureTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/heic"}

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "tritonthenix",
		Usage: "TritonThenix schedule and RSVP backend.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			purgeSessionsCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("application failed")
	}
}

func setupLogger(env envvars.Env) {
	level, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if envvars.IsDev(env) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func loadEnv() (envvars.Env, error) {
	env, err := envvars.GetEvn()
	if err != nil {
		return envvars.Env{}, fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogger(env)
	return env, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := newDependencies(ctx, env)
			if err != nil {
				return err
			}
			defer deps.close()

			server, err := newServer(ctx, env, deps)
			if err != nil {
				return err
			}
			if envvars.IsProd(env) {
				gin.SetMode(gin.ReleaseMode)
			}
			r, err := newRouter(server, env.CORSOrigins)
			if err != nil {
				return err
			}

			s := &http.Server{
				Handler:           r,
				Addr:              "0.0.0.0:" + env.Port,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				IdleTimeout:       2 * time.Minute,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := s.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("failed to shut down cleanly")
				}
			}()

			log.Info().Str("port", env.Port).Str("store", env.StoreBackend).Str("env", env.Environment).Msg("starting HTTP server")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func connectPostgres(ctx context.Context, env envvars.Env) (*postgres.DB, error) {
	if env.StoreBackend != envvars.BackendPostgres {
		return nil, fmt.Errorf("command requires %s=%s", envvars.StoreBackend, envvars.BackendPostgres)
	}
	return postgres.Connect(ctx, env.DatabaseURL)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the Postgres schema.",
		Action: func(c *cli.Context) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			db, err := connectPostgres(c.Context, env)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(c.Context)
		},
	}
}

func purgeSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-sessions",
		Usage: "Delete expired sessions from Postgres.",
		Action: func(c *cli.Context) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			db, err := connectPostgres(c.Context, env)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := db.PurgeExpiredSessions(c.Context)
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Msg("expired sessions purged")
			return nil
		},
	}
}

// dependencies are the store-backed building blocks the server is made of.
type dependencies struct {
	events   event.Repository
	users    user.Repository
	sessions session.Store
	app      *firebase.App
	bucket   profile.ObjectStore
	closers  []func()
}

func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func (d *dependencies) firebaseApp(ctx context.Context, env envvars.Env) (*firebase.App, error) {
	if d.app != nil {
		return d.app, nil
	}
	app, err := gcp.NewApp(ctx, env.GCPProject, env.StorageBucket, env.FirebaseCredentials)
	if err != nil {
		return nil, err
	}
	d.app = app
	return app, nil
}

func newDependencies(ctx context.Context, env envvars.Env) (*dependencies, error) {
	d := &dependencies{}
	switch env.StoreBackend {
	case envvars.BackendMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		d.events = event.NewMemoryRepository()
		d.users = user.NewMemoryRepository()
		d.sessions = session.NewMemoryStore()
	case envvars.BackendFirestore:
		app, err := d.firebaseApp(ctx, env)
		if err != nil {
			return nil, err
		}
		fs, err := gcp.CreateFirestore(ctx, app)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = fs.Close() })
		d.events = event.NewFirestoreRepository(fs)
		d.users = user.NewFirestoreRepository(fs)
		d.sessions = session.NewFirestoreStore(fs)
	case envvars.BackendPostgres:
		db, err := postgres.Connect(ctx, env.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		if err := db.Ready(ctx); err != nil {
			d.close()
			return nil, fmt.Errorf("postgres not ready: %w", err)
		}
		d.events = event.NewPostgresRepository(db.Pool)
		d.users = user.NewPostgresRepository(db.Pool)
		d.sessions = session.NewPostgresStore(db.Pool)
	}

	if env.StorageBucket != "" {
		var opts []option.ClientOption
		if env.FirebaseCredentials != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(env.FirebaseCredentials)))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		d.bucket = gcp.NewBucket(client, env.StorageBucket)
	} else {
		log.Warn().Msg("no storage bucket configured, profile picture uploads are disabled")
	}
	return d, nil
}

func newVerifier(ctx context.Context, env envvars.Env, d *dependencies) (validator.Verifier, error) {
	switch {
	case env.InsecureDecode:
		log.Warn().Msg("credentials are decoded WITHOUT signature verification")
		return validator.NewInsecureVerifier(), nil
	case env.AuthProvider == envvars.ProviderFirebase:
		app, err := d.firebaseApp(ctx, env)
		if err != nil {
			return nil, err
		}
		client, err := gcp.CreateAuth(ctx, app)
		if err != nil {
			return nil, err
		}
		return validator.NewFirebaseVerifier(client), nil
	default:
		return validator.NewGoogleVerifier(ctx, env.GoogleClientID)
	}
}

func newServer(ctx context.Context, env envvars.Env, d *dependencies) (Server, error) {
	verifier, err := newVerifier(ctx, env, d)
	if err != nil {
		return Server{}, err
	}

	var mailer sendgrid.Client
	if env.SendGridAPIKey != "" {
		mailer = sendgrid.NewClient(resty.New().SetTimeout(30*time.Second), env.SendGridAPIKey, env.SendGridBaseURL)
	} else {
		log.Warn().Msg("no SendGrid key configured, attendee email is disabled")
	}

	events := event.NewService(d.events)
	users := user.NewService(d.users)
	return Server{
		EventService:   events,
		SessionService: session.NewService(d.sessions, env.AdminEmails, env.SessionTTL),
		UserService:    users,
		MailService:    mail.NewService(events, mailer, sendgrid.Address{Email: env.MailFrom, Name: mail.DefaultFromName}),
		ProfileService: profile.NewService(d.bucket, users),
		Verifier:       verifier,
		AllowTempAdmin: envvars.IsDev(env) && env.AllowTempAdmin,
	}, nil
}

// corsMiddleware allows every origin when none are configured. Either way
// the Authorization header is allowed so bearer calls pass preflight.
func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = append(config.AllowHeaders, "Authorization")
	return cors.New(config)
}

// newRouter wires the OpenAPI request validator, session resolution and
// the admin gate in front of the handlers.
func newRouter(server Server, origins []string) (*gin.Engine, error) {
	swagger, err := api.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	// Clear out the servers array in the swagger spec, that skips validating
	// that server names match. We don't know how this thing will be run.
	swagger.Servers = nil

	for _, t := range pictureTypes {
		openapi3filter.RegisterBodyDecoder(t, openapi3filter.FileBodyDecoder)
	}

	r := gin.Default()
	r.Use(corsMiddleware(origins))

	r.GET("/openapi", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/x-yaml", api.RawSpec())
	})

	r.Use(ginmiddleware.OapiRequestValidatorWithOptions(swagger, &ginmiddleware.Options{
		ErrorHandler: validator.RequestErrorHandler,
		Options: openapi3filter.Options{
			AuthenticationFunc: validator.NewAuthenticator(server.SessionService),
		},
	}))
	api.RegisterHandlersWithOptions(r, server, api.GinServerOptions{
		Admin: validator.RequireAdmin,
	})
	return r, nil
}
