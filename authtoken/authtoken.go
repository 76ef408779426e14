// Package authtoken implements the signed, IP-bound, expiring capability
// tokens described in §4.6: a JWT-equivalent payload {iat, exp, ip, ro}
// signed HS256 over a per-instance token secret.
package authtoken

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"mediavault/vaulterr"
)

// Claims is the signed payload. ReadOnly marks a share token: mutating
// requests from a read-only session must be rejected at the boundary
// before reaching the index.
type Claims struct {
	jwt.RegisteredClaims
	IP       string `json:"ip"`
	ReadOnly bool   `json:"ro"`
}

// Mint signs a new token for ip, valid from now for lifetime, as a
// capability: the server stores no per-token state beyond tokenSecret.
func Mint(tokenSecret [32]byte, ip string, readOnly bool, now time.Time, lifetime time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		IP:       ip,
		ReadOnly: readOnly,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tokenSecret[:])
	if err != nil {
		return "", vaulterr.IO.Wrap(err)
	}
	return signed, nil
}

// Verify decodes and checks a token against tokenSecret: signature, expiry
// (now <= exp), and an exact match of requestIP against the token's ip
// claim. Any mismatch yields vaulterr.InvalidAuthToken.
func Verify(tokenSecret [32]byte, tokenString, requestIP string, now time.Time) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, vaulterr.InvalidAuthToken.New("unexpected signing method %v", t.Header["alg"])
		}
		return tokenSecret[:], nil
	})
	if err != nil || !token.Valid {
		return Claims{}, vaulterr.InvalidAuthToken.Wrap(err)
	}

	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Time) {
		return Claims{}, vaulterr.InvalidAuthToken.New("token expired")
	}

	if claims.IP != requestIP {
		return Claims{}, vaulterr.InvalidAuthToken.New("ip mismatch")
	}

	return claims, nil
}
