package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
)

// RefereeClaims is the JWT payload for referee panel sessions.
type RefereeClaims struct {
	RefereeID int   `json:"referee_id"`
	GuildID   int64 `json:"guild_id"`
	IsAdmin   bool  `json:"is_admin"`
	jwt.RegisteredClaims
}

type RegisterRefereeParams struct {
	ActorID   int
	DiscordID int64
	GuildID   int64
	Username  string
	Password  string

	IsAdmin            bool
	CanAnnulMatches    bool
	CanModifyResults   bool
	CanResolveDisputes bool
	Notes              *string
}

type AuthService interface {
	// Login verifies the referee's credentials and issues a session token.
	Login(ctx context.Context, guildID int64, username, password string) (string, *models.Referee, error)
	ParseToken(tokenString string) (*RefereeClaims, error)
	// RegisterReferee creates a referee account. Only admins may call it.
	RegisterReferee(ctx context.Context, p RegisterRefereeParams) (*models.Referee, error)
	SetActive(ctx context.Context, actorID, refereeID int, active bool) error
	// ListReferees returns the guild's roster with resolution counters.
	ListReferees(ctx context.Context, actorID int, guildID int64, activeOnly bool) ([]*models.Referee, error)
}

type authService struct {
	refereeRepo repositories.RefereeRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthService(refereeRepo repositories.RefereeRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		refereeRepo: refereeRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

func (s *authService) Login(ctx context.Context, guildID int64, username, password string) (string, *models.Referee, error) {
	referee, err := s.refereeRepo.GetByUsername(ctx, guildID, username)
	if err != nil {
		if errors.Is(err, repositories.ErrRefereeNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !referee.IsActive {
		return "", nil, ErrRefereeInactive
	}
	if err = bcrypt.CompareHashAndPassword([]byte(referee.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := RefereeClaims{
		RefereeID: referee.ID,
		GuildID:   referee.GuildID,
		IsAdmin:   referee.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   referee.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, referee, nil
}

func (s *authService) ParseToken(tokenString string) (*RefereeClaims, error) {
	claims := &RefereeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

func (s *authService) RegisterReferee(ctx context.Context, p RegisterRefereeParams) (*models.Referee, error) {
	if err := s.requireAdmin(ctx, p.ActorID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	referee := &models.Referee{
		DiscordID:          p.DiscordID,
		GuildID:            p.GuildID,
		Username:           p.Username,
		IsActive:           true,
		IsAdmin:            p.IsAdmin,
		CanAnnulMatches:    p.CanAnnulMatches,
		CanModifyResults:   p.CanModifyResults,
		CanResolveDisputes: p.CanResolveDisputes,
		PasswordHash:       string(hash),
		Notes:              p.Notes,
	}
	if err = s.refereeRepo.Create(ctx, referee); err != nil {
		return nil, err
	}
	return referee, nil
}

func (s *authService) SetActive(ctx context.Context, actorID, refereeID int, active bool) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	referee, err := s.refereeRepo.GetByID(ctx, refereeID)
	if err != nil {
		return err
	}
	referee.IsActive = active
	return s.refereeRepo.Update(ctx, referee)
}

func (s *authService) ListReferees(ctx context.Context, actorID int, guildID int64, activeOnly bool) ([]*models.Referee, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.refereeRepo.ListByGuild(ctx, guildID, activeOnly)
}

func (s *authService) requireAdmin(ctx context.Context, actorID int) error {
	actor, err := s.refereeRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin || !actor.IsActive {
		return ErrAdminOnly
	}
	return nil
}
