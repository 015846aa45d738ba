package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")
)

// Service resolves identity-provider bearer tokens to internal user rows.
// Token issuance and credential handling belong to the identity provider;
// this service only verifies the signature and maps the external subject
// to a users row, creating one on first authenticated interaction.
type Service struct {
	jwtSecret []byte
}

// NewService creates a new auth service
func NewService(jwtSecret []byte) *Service {
	return &Service{jwtSecret: jwtSecret}
}

// Claims carried by identity provider tokens that we care about
type identityClaims struct {
	Name     string `json:"name"`
	Username string `json:"preferred_username"`
	Picture  string `json:"picture"`
	jwt.RegisteredClaims
}

// ResolveUser validates the token and returns the internal user for its
// subject, creating the user row if this is the subject's first request.
func (s *Service) ResolveUser(tokenString string) (*models.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = database.DB.Where("external_id = ?", claims.Subject).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user = models.User{
		ExternalID:  claims.Subject,
		Username:    usernameFromClaims(claims),
		DisplayName: displayNameFromClaims(claims),
		AvatarURL:   claims.Picture,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		// Concurrent first requests can race on the unique external_id;
		// whoever lost the race reads the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if rerr := database.DB.Where("external_id = ?", claims.Subject).First(&user).Error; rerr == nil {
				return &user, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// parseToken verifies the HMAC signature and extracts identity claims
func (s *Service) parseToken(tokenString string) (*identityClaims, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// usernameFromClaims derives a unique handle for a new user. The
// preferred_username claim wins when present; the external subject is
// appended as a suffix to keep handles unique without a retry loop.
func usernameFromClaims(claims *identityClaims) string {
	base := strings.ToLower(strings.TrimSpace(claims.Username))
	if base == "" {
		base = strings.ToLower(strings.SplitN(strings.TrimSpace(claims.Name), " ", 2)[0])
	}
	if base == "" {
		base = "user"
	}
	suffix := strings.ReplaceAll(claims.Subject, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	if suffix == "" {
		suffix = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}
	return base + "_" + suffix
}

func displayNameFromClaims(claims *identityClaims) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	return "Picstream User"
}
