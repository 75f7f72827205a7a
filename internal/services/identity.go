package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

const (
	AuthModeJWKS     = "jwks"
	AuthModeHMAC     = "hmac"
	AuthModeDisabled = "disabled"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified caller. UserID is the token subject.
type Identity struct {
	UserID string
	Mode   string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
	Mode() string
}

type AuthConfig struct {
	Mode     string
	JWKSURL  string
	Issuer   string
	Audience string
	Secret   string
	// JWKSTTL bounds how long fetched keys are trusted before a refresh. Zero means 1h.
	JWKSTTL time.Duration
	Leeway  time.Duration
}

// NewVerifier builds the verifier for cfg.Mode. An empty mode means jwks.
func NewVerifier(cfg AuthConfig, httpClient *http.Client, baseLog *logger.Logger) (Verifier, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = AuthModeJWKS
	}
	log := baseLog.With("service", "Verifier", "auth_mode", mode)
	switch mode {
	case AuthModeDisabled:
		log.Warn("authentication disabled; X-User-Id is trusted")
		return disabledVerifier{}, nil
	case AuthModeHMAC:
		if strings.TrimSpace(cfg.Secret) == "" {
			return nil, fmt.Errorf("AUTH_JWT_SECRET is required for hmac auth")
		}
		return &tokenVerifier{
			mode:   AuthModeHMAC,
			parser: newParser(cfg, []string{"HS256"}),
			keyFn: func(context.Context, *jwt.Token) (any, error) {
				return []byte(cfg.Secret), nil
			},
		}, nil
	case AuthModeJWKS:
		if strings.TrimSpace(cfg.JWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required for jwks auth")
		}
		if strings.TrimSpace(cfg.Issuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required for jwks auth")
		}
		if httpClient == nil {
			httpClient = &http.Client{Timeout: 10 * time.Second}
		}
		keys := newJWKSCache(httpClient, cfg.JWKSURL, cfg.JWKSTTL, log)
		return &tokenVerifier{
			mode:   AuthModeJWKS,
			parser: newParser(cfg, []string{"RS256", "ES256"}),
			keyFn: func(ctx context.Context, t *jwt.Token) (any, error) {
				kid, _ := t.Header["kid"].(string)
				if strings.TrimSpace(kid) == "" {
					return nil, fmt.Errorf("missing kid")
				}
				return keys.key(ctx, kid)
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Mode)
	}
}

func newParser(cfg AuthConfig, algs []string) *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return jwt.NewParser(opts...)
}

type tokenVerifier struct {
	mode   string
	parser *jwt.Parser
	keyFn  func(ctx context.Context, t *jwt.Token) (any, error)
}

func (v *tokenVerifier) Mode() string { return v.mode }

func (v *tokenVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}
	claims := jwt.RegisteredClaims{}
	tok, err := v.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.keyFn(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if tok == nil || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrUnauthenticated)
	}
	return &Identity{UserID: sub, Mode: v.mode}, nil
}

// disabledVerifier treats the presented value as the user id.
type disabledVerifier struct{}

func (disabledVerifier) Mode() string { return AuthModeDisabled }

func (disabledVerifier) Verify(_ context.Context, userID string) (*Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing X-User-Id", ErrUnauthenticated)
	}
	return &Identity{UserID: userID, Mode: AuthModeDisabled}, nil
}

type jwksCache struct {
	httpClient *http.Client
	url        string
	ttl        time.Duration
	log        *logger.Logger

	mu        sync.RWMutex
	keys      map[string]any
	fetchedAt time.Time
}

func newJWKSCache(httpClient *http.Client, url string, ttl time.Duration, log *logger.Logger) *jwksCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &jwksCache{httpClient: httpClient, url: url, ttl: ttl, log: log, keys: map[string]any{}}
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// key returns the public key for kid. An unknown kid forces a refresh so rotated keys are
// picked up; a failed refresh falls back to the cached key when one exists.
func (j *jwksCache) key(ctx context.Context, kid string) (any, error) {
	j.mu.RLock()
	k := j.keys[kid]
	fresh := time.Since(j.fetchedAt) < j.ttl
	j.mu.RUnlock()
	if k != nil && fresh {
		return k, nil
	}

	if err := j.refresh(ctx); err != nil {
		if k != nil {
			j.log.Warn("jwks refresh failed; using cached key", "kid", kid, "error", err)
			return k, nil
		}
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if k = j.keys[kid]; k == nil {
		return nil, fmt.Errorf("kid %q not found in jwks", kid)
	}
	return k, nil
}

func (j *jwksCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return err
	}
	res, err := j.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("fetch jwks: %s", res.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}
	next := make(map[string]any, len(set.Keys))
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			j.log.Debug("skipping jwk", "kid", k.Kid, "error", err)
			continue
		}
		next[k.Kid] = pub
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}

	j.mu.Lock()
	j.keys = next
	j.fetchedAt = time.Now()
	j.mu.Unlock()
	return nil
}

func (k jwk) publicKey() (any, error) {
	switch k.Kty {
	case "RSA":
		n, err := b64Int(k.N)
		if err != nil {
			return nil, err
		}
		e, err := b64Int(k.E)
		if err != nil {
			return nil, err
		}
		if !e.IsInt64() || e.Int64() <= 1 || e.Int64() > 1<<31-1 {
			return nil, fmt.Errorf("invalid rsa exponent")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		if k.Crv != "P-256" {
			return nil, fmt.Errorf("unsupported curve %q", k.Crv)
		}
		x, err := b64Int(k.X)
		if err != nil {
			return nil, err
		}
		y, err := b64Int(k.Y)
		if err != nil {
			return nil, err
		}
		curve := elliptic.P256()
		if !curve.IsOnCurve(x, y) {
			return nil, fmt.Errorf("invalid ec point")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unsupported kty %q", k.Kty)
	}
}

func b64Int(s string) (*big.Int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
