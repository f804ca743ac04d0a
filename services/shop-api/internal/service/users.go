package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/auth"
	"ecommerce-shop/services/shop-api/internal/github"
	"ecommerce-shop/services/shop-api/internal/metrics"
	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (github.Profile, error)
}

type UserService struct {
	Store         repo.Store
	Log           zerolog.Logger
	Tokens        *auth.ResetTokens
	ResetURL      string
	GitHub        ProfileFetcher
	InactiveAfter time.Duration
	Now           func() time.Time
}

type CreateUserInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Age       *int   `json:"age" validate:"required,gte=0,lte=150"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type UpdateUserInput struct {
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"required,max=100"`
	Email     string      `json:"email" validate:"required,email"`
	Age       *int        `json:"age" validate:"required,gte=0,lte=150"`
	Role      models.Role `json:"role" validate:"required,oneof=user premium"`
	Password  string      `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func duplicateEmail() *apperr.Error {
	return apperr.New(http.StatusConflict, apperr.CodeDuplicateEmail, "email is already registered")
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := clock(s.Now)
	u := &models.User{
		ID:             uuid.NewString(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Age:            *in.Age,
		PasswordHash:   hash,
		Role:           models.RoleUser,
		Provider:       models.ProviderLocal,
		Documents:      []models.Document{},
		LastConnection: &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.Store.Users().Create(ctx, u)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, duplicateEmail()
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Log.Info().Str("user_id", u.ID).Msg("user created")
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.Store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	return loadUser(ctx, s.Store, id)
}

// Update replaces the profile. The password is rehashed only when a new one
// is supplied, and promotion to premium follows the same document rule as
// ChangeRole.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		h, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	var out *models.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Role == models.RolePremium && u.Role != models.RolePremium {
			if missing := missingDocuments(u.Documents); len(missing) > 0 {
				return documentsMissing(missing)
			}
		}

		u.FirstName, u.LastName, u.Email, u.Age, u.Role = in.FirstName, in.LastName, in.Email, *in.Age, in.Role
		if hash != "" {
			u.PasswordHash = hash
		}
		u.UpdatedAt = clock(s.Now)

		err = tx.Users().Update(ctx, u)
		if errors.Is(err, repo.ErrDuplicate) {
			return duplicateEmail()
		}
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		out = u
		return nil
	})
	return out, err
}

// Delete removes the user and their cart and queues the goodbye email.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := checkID("user", id); err != nil {
		return err
	}
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := deleteCart(ctx, tx, u.CartID); err != nil {
			return err
		}
		err = tx.Users().Delete(ctx, u.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		evt := models.NewUserDeleted(*u)
		return tx.Outbox().Enqueue(ctx, evt.ID, u.ID, evt.Type, evt)
	})
	if err != nil {
		return err
	}
	s.Log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func deleteCart(ctx context.Context, tx repo.Store, cartID string) error {
	if cartID == "" {
		return nil
	}
	if err := tx.Carts().Delete(ctx, cartID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}
	return nil
}

func invalidCredentials() *apperr.Error {
	return apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCreds, "invalid email or password")
}

// Login checks a local password and records the connection time.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required", "")
	}
	u, err := s.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.PasswordHash == "" {
		return nil, invalidCredentials()
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("check password: %w", err)
	}

	now := clock(s.Now)
	if err := s.Store.Users().TouchLastConnection(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("touch last connection: %w", err)
	}
	u.LastConnection = &now
	return u, nil
}

// LoginWithGitHub finds the account by the GitHub email or creates one.
func (s *UserService) LoginWithGitHub(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperr.Validation("access_token is required", "")
	}
	p, err := s.GitHub.FetchProfile(ctx, accessToken)
	switch {
	case errors.Is(err, github.ErrUnauthorized):
		return nil, apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCreds, "github token rejected")
	case errors.Is(err, github.ErrNoEmail):
		return nil, apperr.BadRequest(apperr.CodeValidation, "github account has no verified email")
	case err != nil:
		return nil, &apperr.Error{Code: apperr.CodeUpstream, Message: "github unavailable", Status: http.StatusBadGateway, Err: err}
	}

	var out *models.User
	err = s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		now := clock(s.Now)
		email := normalizeEmail(p.Email)
		u, err := tx.Users().GetByEmail(ctx, email)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			first, last := splitName(p.Name, p.Login)
			u = &models.User{
				ID:                   uuid.NewString(),
				FirstName:            first,
				LastName:             last,
				Email:                email,
				Role:                 models.RoleUser,
				Provider:             models.ProviderGitHub,
				Documents:            []models.Document{},
				LastConnectionGitHub: &now,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := tx.Users().Create(ctx, u); err != nil {
				return fmt.Errorf("create github user: %w", err)
			}
			s.Log.Info().Str("user_id", u.ID).Str("login", p.Login).Msg("github user created")
		case err != nil:
			return fmt.Errorf("load user: %w", err)
		default:
			if err := tx.Users().TouchLastConnectionGitHub(ctx, u.ID, now); err != nil {
				return fmt.Errorf("touch github connection: %w", err)
			}
			u.LastConnectionGitHub = &now
		}
		out = u
		return nil
	})
	return out, err
}

func splitName(name, login string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return login, ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// SweepInactive deletes users idle longer than InactiveAfter and queues one
// notification per deleted user in the same transaction.
func (s *UserService) SweepInactive(ctx context.Context) ([]models.User, error) {
	cutoff := clock(s.Now).Add(-s.InactiveAfter)

	var gone []models.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		users, err := tx.Users().DeleteInactive(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete inactive users: %w", err)
		}
		for _, u := range users {
			if err := deleteCart(ctx, tx, u.CartID); err != nil {
				return err
			}
			evt := models.NewUserInactiveDeleted(u)
			if err := tx.Outbox().Enqueue(ctx, evt.ID, u.ID, evt.Type, evt); err != nil {
				return fmt.Errorf("enqueue %s: %w", evt.Type, err)
			}
		}
		gone = users
		return nil
	})
	if err != nil {
		return nil, err
	}
	if gone == nil {
		gone = []models.User{}
	}

	metrics.UsersSweptTotal.Add(float64(len(gone)))
	s.Log.Info().Time("cutoff", cutoff).Int("deleted", len(gone)).Msg("inactive users swept")
	return gone, nil
}
