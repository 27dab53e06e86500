package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/rs/zerolog/log"

	"tritonthenix/services/session"
)

const GoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var (
	ErrInvalidCredential = errors.New("credential is invalid")
	ErrMissingEmailClaim = errors.New("credential carries no email")
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Verifier turns a sign-in credential into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (session.Identity, error)
}

type googleVerifier struct {
	keys     func(ctx context.Context) (jwk.Set, error)
	clientID string
	clock    jwt.Clock
}

// NewGoogleVerifier checks Google ID tokens against Google's published keys,
// refreshed in the background.
func NewGoogleVerifier(ctx context.Context, clientID string) (Verifier, error) {
	ar := jwk.NewAutoRefresh(ctx)
	ar.Configure(GoogleCertsURL, jwk.WithMinRefreshInterval(15*time.Minute))
	if _, err := ar.Fetch(ctx, GoogleCertsURL); err != nil {
		return nil, fmt.Errorf("failed to fetch google signing keys: %w", err)
	}
	return &googleVerifier{
		keys:     func(ctx context.Context) (jwk.Set, error) { return ar.Fetch(ctx, GoogleCertsURL) },
		clientID: clientID,
		clock:    jwt.ClockFunc(time.Now),
	}, nil
}

// NewStaticGoogleVerifier checks Google-format ID tokens against a fixed key set.
func NewStaticGoogleVerifier(set jwk.Set, clientID string, clock jwt.Clock) Verifier {
	if clock == nil {
		clock = jwt.ClockFunc(time.Now)
	}
	return &googleVerifier{
		keys:     func(context.Context) (jwk.Set, error) { return set, nil },
		clientID: clientID,
		clock:    clock,
	}
}

func (g *googleVerifier) Verify(ctx context.Context, credential string) (session.Identity, error) {
	set, err := g.keys(ctx)
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to load signing keys: %w", err)
	}
	tok, err := jwt.ParseString(credential,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithAudience(g.clientID),
		jwt.WithClock(g.clock),
	)
	if err != nil {
		log.Debug().Err(err).Msg("google credential rejected")
		return session.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if !validIssuer(tok.Issuer()) {
		return session.Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, tok.Issuer())
	}
	return identityFromToken(tok)
}

func validIssuer(iss string) bool {
	for _, i := range googleIssuers {
		if iss == i {
			return true
		}
	}
	return false
}

func claim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func identityFromToken(tok jwt.Token) (session.Identity, error) {
	identity := session.Identity{
		Email:   strings.TrimSpace(claim(tok, "email")),
		Name:    claim(tok, "name"),
		Picture: claim(tok, "picture"),
	}
	if identity.Email == "" {
		return session.Identity{}, ErrMissingEmailClaim
	}
	return identity, nil
}

// IDTokenVerifier is satisfied by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseVerifier struct {
	client IDTokenVerifier
}

func NewFirebaseVerifier(client IDTokenVerifier) Verifier {
	return &firebaseVerifier{client: client}
}

func (f *firebaseVerifier) Verify(ctx context.Context, credential string) (session.Identity, error) {
	tok, err := f.client.VerifyIDToken(ctx, credential)
	if err != nil {
		log.Debug().Err(err).Msg("firebase credential rejected")
		return session.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	str := func(name string) string {
		s, _ := tok.Claims[name].(string)
		return s
	}
	identity := session.Identity{
		Email:   strings.TrimSpace(str("email")),
		Name:    str("name"),
		Picture: str("picture"),
	}
	if identity.Email == "" {
		return session.Identity{}, ErrMissingEmailClaim
	}
	return identity, nil
}

type insecureVerifier struct{}

// NewInsecureVerifier reads the token payload without checking its
// signature. Only for local development.
func NewInsecureVerifier() Verifier {
	return insecureVerifier{}
}

func (insecureVerifier) Verify(_ context.Context, credential string) (session.Identity, error) {
	tok, err := jwt.ParseString(credential)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return identityFromToken(tok)
}
