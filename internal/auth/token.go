package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"finance-tracker/internal/models"
)

// Sentinel errors for the token validation pipeline. Handlers collapse
// all of them to a uniform 401 so a caller cannot tell which check failed.
var (
	// ErrInvalidToken covers malformed tokens, bad signatures, expired
	// tokens, and tokens missing required claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked marks a token whose jti is in the revocation ledger.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUserNotFound marks a valid token whose subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// TokenConfig defines how session tokens are signed and verified.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (c TokenConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// sessionClaims is the wire shape of a session token. Only registered
// claims are used: sub carries the user id, ID carries the jti.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issuer mints signed session tokens.
type Issuer struct {
	cfg TokenConfig
}

// NewIssuer creates a token issuer.
func NewIssuer(cfg TokenConfig) *Issuer {
	return &Issuer{cfg: cfg}
}

// Issue mints a token for a user. Every token carries a fresh random jti
// so it can be revoked independently. No storage is touched; nothing is
// persisted until the token is revoked.
func (i *Issuer) Issue(userID int64) (token, jti string, expiresAt time.Time, err error) {
	jti = uuid.NewString()
	expiresAt = i.cfg.now().UTC().Add(i.cfg.TTL)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(i.cfg.now().UTC()),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// RevocationLedger is the set of revoked token identifiers.
type RevocationLedger interface {
	IsTokenRevoked(jti string) (bool, error)
}

// UserStore resolves token subjects to user records.
type UserStore interface {
	GetUserByID(id int64) (*models.User, error)
}

// Authenticator validates inbound tokens and resolves them to users.
type Authenticator struct {
	cfg    TokenConfig
	ledger RevocationLedger
	users  UserStore
}

// NewAuthenticator creates an authenticator backed by a revocation ledger
// and a user store.
func NewAuthenticator(cfg TokenConfig, ledger RevocationLedger, users UserStore) *Authenticator {
	return &Authenticator{cfg: cfg, ledger: ledger, users: users}
}

// Authenticate validates a token and returns the user it identifies.
// Checks run in order and the first failure is terminal: signature and
// expiry, required claims, revocation ledger, subject lookup.
func (a *Authenticator) Authenticate(tokenString string) (*models.User, error) {
	claims, err := a.decode(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := a.ledger.IsTokenRevoked(claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := a.users.GetUserByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Decode verifies a token's signature and expiry and returns its jti and
// expiry without consulting the revocation ledger. Logout uses this so
// revoking an already-revoked token still succeeds.
func (a *Authenticator) Decode(tokenString string) (jti string, expiresAt time.Time, err error) {
	claims, err := a.decode(tokenString)
	if err != nil {
		return "", time.Time{}, err
	}
	return claims.ID, claims.ExpiresAt.Time, nil
}

func (a *Authenticator) decode(tokenString string) (*sessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return a.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.cfg.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	// Every token this service issues carries sub, jti and exp; a token
	// missing any of them is rejected rather than grandfathered in.
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
