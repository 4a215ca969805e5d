// pkg/lti-launch/launch/state.go
package launch

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the fixed issuer of both the state token and the
// issued application token.
const tokenIssuer = "lti"

// stateLifetime bounds the round trip through the Platform.
const stateLifetime = 3 * time.Minute

// stateClaims is the signed handshake context carried across the
// browser redirect. The nonce's only record is this token; nothing is
// stored server side.
type stateClaims struct {
	Nonce    string `json:"nonce"`
	Target   string `json:"target"`
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

func signState(key []byte, nonce, target, clientID string, now time.Time) (string, error) {
	claims := &stateClaims{
		Nonce:    nonce,
		Target:   target,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(key)
}

// verifyState checks signature, issuer and expiry. The clientId inside
// is checked by the caller so a mismatch can be logged distinctly.
func verifyState(key []byte, raw string, now func() time.Time) (*stateClaims, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
