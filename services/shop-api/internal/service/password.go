package service

import (
	"context"
	"errors"
	"fmt"

	"ecommerce-shop/services/shop-api/internal/auth"
	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

const minPasswordLen = 6

// RequestPasswordReset issues a signed link for the account and queues the
// email. Unknown addresses succeed silently.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return apperr.Validation("a valid email is required", "email")
	}

	known := true
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		found, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, repo.ErrNotFound) {
			known = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		u, err := lockUser(ctx, tx, found.ID)
		if err != nil {
			return err
		}

		token, expires, err := s.Tokens.Generate(u.ID, u.Email)
		if err != nil {
			return fmt.Errorf("sign reset token: %w", err)
		}
		u.ResetToken = token
		u.ResetTokenExpires = &expires
		u.UpdatedAt = clock(s.Now)
		if err := tx.Users().Update(ctx, u); err != nil {
			return fmt.Errorf("store reset token: %w", err)
		}
		link := s.ResetURL + "/" + u.ID + "/" + token
		evt := models.NewPasswordResetRequested(*u, link, expires)
		return tx.Outbox().Enqueue(ctx, evt.ID, u.ID, evt.Type, evt)
	})
	if err == nil && !known {
		s.Log.Info().Msg("password reset requested for unknown email")
	}
	return err
}

func tokenError(err error) *apperr.Error {
	if errors.Is(err, auth.ErrTokenExpired) {
		return apperr.BadRequest(apperr.CodeTokenExpired, "reset link has expired")
	}
	return apperr.BadRequest(apperr.CodeTokenInvalid, "reset link is invalid")
}

// ResetPassword accepts a token issued for this user, refuses to reuse the
// current password, and clears the token on success.
func (s *UserService) ResetPassword(ctx context.Context, id, token, newPassword string) error {
	if err := checkID("user", id); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLen {
		return apperr.Validation("password is too short", fmt.Sprintf("minimum length is %d", minPasswordLen))
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return tokenError(err)
	}

	err = s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if claims.Subject != u.ID || u.ResetToken == "" || u.ResetToken != token {
			return tokenError(auth.ErrTokenInvalid)
		}
		now := clock(s.Now)
		if u.ResetTokenExpires != nil && now.After(*u.ResetTokenExpires) {
			return tokenError(auth.ErrTokenExpired)
		}
		if u.PasswordHash != "" && auth.CheckPassword(u.PasswordHash, newPassword) == nil {
			return apperr.BadRequest(apperr.CodeSamePassword, "new password must differ from the current one")
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		u.ResetToken = ""
		u.ResetTokenExpires = nil
		u.UpdatedAt = now
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return err
	}
	s.Log.Info().Str("user_id", id).Msg("password reset")
	return nil
}
