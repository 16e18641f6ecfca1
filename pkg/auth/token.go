package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrWrongPurpose is returned when a token minted for one flow is presented to another.
var ErrWrongPurpose = errors.New("token purpose mismatch")

// MintAccessToken issues a signed JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg); err != nil {
		return "", err
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
			ID:        jti,
		},
	}
	return sign(cfg, claims)
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := parse(cfg, tokenString, claims, jwt.WithIssuer(cfg.Issuer)); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseAccessTokenAllowExpired parses the JWT without validating exp/nbf so refresh can inspect jti.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := parse(cfg, tokenString, claims, jwt.WithIssuer(cfg.Issuer), jwt.WithoutClaimsValidation()); err != nil {
		return nil, err
	}
	return claims, nil
}

// MintMagicLinkToken signs a single-purpose login token valid for ttl.
func MintMagicLinkToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, userID uuid.UUID, email string) (string, error) {
	if err := checkSigningConfig(cfg); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("magic link ttl must be positive")
	}
	claims := MagicLinkClaims{
		UserID:  userID,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Purpose: PurposeMagicLogin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return sign(cfg, claims)
}

// ParseMagicLinkToken validates signature, expiry and purpose.
func ParseMagicLinkToken(cfg config.JWTConfig, tokenString string) (*MagicLinkClaims, error) {
	claims := &MagicLinkClaims{}
	if err := parse(cfg, tokenString, claims, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired()); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeMagicLogin {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func checkSigningConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return fmt.Errorf("jwt issuer is required")
	}
	return nil
}

func sign(cfg config.JWTConfig, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func parse(cfg config.JWTConfig, tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}))
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	return err
}
