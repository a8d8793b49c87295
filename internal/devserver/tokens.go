package devserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"umclient/internal/common"
	"umclient/internal/models"
)

const tokenIssuer = "umclient-dev"

// Claims carried by both token types; typ distinguishes access from refresh.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService signs and validates the HS256 token pairs the stub issues.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
	store      RefreshTokenStore
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, rotate bool, store RefreshTokenStore) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if store == nil {
		store = NewMemoryRefreshTokenStore()
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		rotate:     rotate,
		store:      store,
	}
}

// GeneratePair issues a fresh access and refresh token for the user and
// registers the refresh token's jti as live.
func (s *TokenService) GeneratePair(user models.User) (models.TokenResponse, error) {
	if len(s.secret) == 0 {
		return models.TokenResponse{}, common.ErrInvalidToken
	}
	now := time.Now().UTC()

	access, _, err := s.sign(user, now, s.accessTTL, "access")
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, jti, err := s.sign(user, now, s.refreshTTL, "refresh")
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("signing refresh token: %w", err)
	}
	if err := s.store.Store(jti, user.ID, s.refreshTTL); err != nil {
		return models.TokenResponse{}, fmt.Errorf("storing refresh token: %w", err)
	}

	return models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		ExpiresAt:    now.Add(s.accessTTL),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. With
// rotation enabled the old refresh token is revoked and a new one issued;
// otherwise the response omits the refresh token and the old one stays live.
func (s *TokenService) Refresh(refreshToken string, lookup func(userID string) (models.User, bool)) (models.RefreshResponse, error) {
	claims, err := s.parseTyped(refreshToken, "refresh")
	if err != nil {
		return models.RefreshResponse{}, err
	}

	live, err := s.store.Exists(claims.ID)
	if err != nil {
		return models.RefreshResponse{}, fmt.Errorf("checking refresh token: %w", err)
	}
	if !live {
		return models.RefreshResponse{}, common.ErrRefreshTokenExpired
	}

	user, ok := lookup(claims.UserID)
	if !ok {
		return models.RefreshResponse{}, common.ErrUnauthorized
	}

	now := time.Now().UTC()
	access, _, err := s.sign(user, now, s.accessTTL, "access")
	if err != nil {
		return models.RefreshResponse{}, fmt.Errorf("signing access token: %w", err)
	}

	out := models.RefreshResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		ExpiresAt:   now.Add(s.accessTTL),
	}

	if s.rotate {
		if err := s.store.Revoke(claims.ID); err != nil {
			return models.RefreshResponse{}, fmt.Errorf("revoking refresh token: %w", err)
		}
		refresh, jti, err := s.sign(user, now, s.refreshTTL, "refresh")
		if err != nil {
			return models.RefreshResponse{}, fmt.Errorf("signing refresh token: %w", err)
		}
		if err := s.store.Store(jti, user.ID, s.refreshTTL); err != nil {
			return models.RefreshResponse{}, fmt.Errorf("storing refresh token: %w", err)
		}
		out.RefreshToken = refresh
	}
	return out, nil
}

// Revoke invalidates a single refresh token; all=true revokes every live
// refresh token belonging to the same user.
func (s *TokenService) Revoke(refreshToken string, all bool) error {
	claims, err := s.parseTyped(refreshToken, "refresh")
	if err != nil {
		return err
	}
	if all {
		return s.store.RevokeAll(claims.UserID)
	}
	return s.store.Revoke(claims.ID)
}

// ParseAccess validates an access token and returns its claims.
func (s *TokenService) ParseAccess(accessToken string) (Claims, error) {
	return s.parseTyped(accessToken, "access")
}

func (s *TokenService) sign(user models.User, now time.Time, ttl time.Duration, tokenType string) (string, string, error) {
	jti := uuid.NewString()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, jti, err
}

func (s *TokenService) parseTyped(tokenString, wantType string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, common.ErrInvalidToken
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, common.ErrTokenExpired
		}
		return Claims{}, common.ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return Claims{}, common.ErrInvalidToken
	}
	if claims.Issuer != tokenIssuer || claims.UserID == "" || claims.Subject != claims.UserID {
		return Claims{}, common.ErrInvalidToken
	}
	return claims, nil
}
