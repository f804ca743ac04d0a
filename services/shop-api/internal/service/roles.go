package service

import (
	"context"
	"fmt"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

func (s *UserService) GetRole(ctx context.Context, id string) (models.Role, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// ChangeRole sets the role to target, or toggles user/premium when target is
// empty. Promotion requires DNI, CUENTA and DOMICILIO documents.
func (s *UserService) ChangeRole(ctx context.Context, id string, target models.Role) (*models.User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	if target != "" && !target.Valid() {
		return nil, apperr.Validation("invalid role", fmt.Sprintf("role %q is not one of user, premium", target))
	}

	var out *models.User
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		next := target
		if next == "" {
			next = models.RolePremium
			if u.Role == models.RolePremium {
				next = models.RoleUser
			}
		}
		if next == models.RolePremium && u.Role != models.RolePremium {
			if missing := missingDocuments(u.Documents); len(missing) > 0 {
				return documentsMissing(missing)
			}
		}
		if next == u.Role {
			out = u
			return nil
		}

		u.Role = next
		u.UpdatedAt = clock(s.Now)
		if err := tx.Users().Update(ctx, u); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("user_id", id).Str("role", string(out.Role)).Msg("role changed")
	return out, nil
}
