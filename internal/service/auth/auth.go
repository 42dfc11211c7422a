package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"gorm.io/gorm"

	"techstore-backend/internal/apperr"
	"techstore-backend/internal/hash"
	"techstore-backend/internal/logging"
	"techstore-backend/internal/models"
	"techstore-backend/internal/mykafka"
)

const minPasswordLen = 6

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
	IsAdmin      bool
}

func (s *Service) publish(ctx context.Context, key string, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func validateRegister(in RegisterInput) error {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fields["email"] = "must be a valid email"
	}
	if len(in.Password) < minPasswordLen {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLen)
	}
	if len(fields) > 0 {
		return apperr.WithFields(apperr.ErrValidation, fields)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleUser)
}

// RegisterAdmin creates an admin account. Only an existing admin may call it.
func (s *Service) RegisterAdmin(ctx context.Context, actor models.Actor, in RegisterInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	return s.register(ctx, in, models.RoleAdmin)
}

func (s *Service) register(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	var existing models.User
	err := s.DB.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, apperr.Field(apperr.ErrConflict, "email", "already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, fmt.Sprint(user.ID), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"role":   user.Role,
	})
	return &user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperr.WithFields(apperr.ErrValidation, map[string]string{
			"email":    "required",
			"password": "required",
		})
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAuth
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrAuth
	}

	access, _, err := SignAccessToken(user.ID, user.Role, s.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := SignRefreshToken(user.ID, user.Role, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	stored := models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	s.publish(ctx, fmt.Sprint(user.ID), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})
	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		IsAdmin:      user.Role == models.RoleAdmin,
	}, nil
}

// Refresh validates a refresh token against its stored row and rotates the
// pair. The old token is revoked in the same step.
func (s *Service) Refresh(ctx context.Context, raw string) (access, refresh string, err error) {
	claims, err := parseRefreshToken(raw, s.RefreshSecret)
	if err != nil {
		return "", "", apperr.ErrAuth
	}

	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.ErrAuth
		}
		return "", "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored.Revoked || time.Now().Unix() > stored.ExpiresAt {
		return "", "", apperr.ErrAuth
	}

	userID, err := (&AccessClaims{RegisteredClaims: claims.RegisteredClaims}).UserID()
	if err != nil {
		return "", "", apperr.ErrAuth
	}

	access, _, err = SignAccessToken(userID, claims.Role, s.JWTSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := SignRefreshToken(userID, claims.Role, s.RefreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RefreshToken{}).Where("token = ?", raw).Update("revoked", true).Error; err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		next := models.RefreshToken{
			Token:     refresh,
			UserID:    userID,
			Role:      claims.Role,
			ExpiresAt: refreshExp.Unix(),
		}
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return "", "", txErr
	}
	return access, refresh, nil
}

// ToggleRole sets a user's role to the requested value. No transition
// restriction: an admin can demote themselves.
func (s *Service) ToggleRole(ctx context.Context, actor models.Actor, userID uint, role string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.Field(apperr.ErrValidation, "role", `must be "user" or "admin"`)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	user.Role = role
	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.publish(ctx, fmt.Sprint(user.ID), map[string]any{
		"type":   "user_role_changed",
		"userID": user.ID,
		"role":   user.Role,
	})
	return &user, nil
}
