package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the request identity inside an access token.
type Claims struct {
	UserID    string     `json:"user_id"`
	Role      model.Role `json:"role"`
	ProfileID string     `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateAccessToken(identity model.Identity) (string, time.Duration, error)
	ValidateToken(token string) (model.Identity, error)
}

type jwtService struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret, issuer string, expiry time.Duration) JWTService {
	return &jwtService{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *jwtService) GenerateAccessToken(identity model.Identity) (string, time.Duration, error) {
	now := s.now()
	claims := &Claims{
		UserID: identity.UserID.String(),
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	if identity.ProfileID != uuid.Nil {
		claims.ProfileID = identity.ProfileID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, s.expiry, nil
}

func (s *jwtService) ValidateToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: bad user_id", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return model.Identity{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}

	identity := model.Identity{UserID: userID, Role: claims.Role}
	if claims.ProfileID != "" {
		if identity.ProfileID, err = uuid.Parse(claims.ProfileID); err != nil {
			return model.Identity{}, fmt.Errorf("%w: bad profile_id", ErrInvalidToken)
		}
	}
	return identity, nil
}
