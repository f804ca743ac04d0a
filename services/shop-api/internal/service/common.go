// Package service holds the shop's business rules. Every multi-row mutation
// runs inside repo.Store.InTx.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput reports every failing field by its JSON name.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return apperr.Validation("invalid or missing fields", strings.Join(fields, ", ")).With("fields", fields)
}

func checkID(what, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.InvalidID(what, id)
	}
	return nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func loadUser(ctx context.Context, s repo.Store, id string) (*models.User, error) {
	return findUser(s.Users().GetByID(ctx, id))
}

// lockUser loads the user and holds its row until tx ends, so concurrent
// writers of the same account apply one after the other.
func lockUser(ctx context.Context, tx repo.Store, id string) (*models.User, error) {
	return findUser(tx.Users().GetForUpdate(ctx, id))
}

func findUser(u *models.User, err error) (*models.User, error) {
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func loadProduct(ctx context.Context, p repo.Products, id string) (*models.Product, error) {
	prod, err := p.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeProductNotFound, "product not found").With("product_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}
	return prod, nil
}

// userCart returns the user's cart, locked when forUpdate is set.
func userCart(ctx context.Context, s repo.Store, u *models.User, forUpdate bool) (*models.Cart, error) {
	if u.CartID == "" {
		return nil, apperr.NotFound(apperr.CodeCartNotFound, "cart not found")
	}
	get := s.Carts().GetByID
	if forUpdate {
		get = s.Carts().GetForUpdate
	}
	c, err := get(ctx, u.CartID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeCartNotFound, "cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", u.CartID, err)
	}
	return c, nil
}

func insufficientStock(p *models.Product, requested int) *apperr.Error {
	e := apperr.BadRequest(apperr.CodeInsufficientStock, fmt.Sprintf("insufficient stock for product %q", p.Title))
	e.Detail = fmt.Sprintf("requested %d, available %d", requested, p.Stock)
	return e.With("product_id", p.ID)
}

// missingDocuments lists required kinds with no uploaded document of that
// kind, in RequiredPremiumDocuments order. Names and references are not
// consulted since both carry the client's filename.
func missingDocuments(docs []models.Document) []string {
	missing := []string{}
	for _, kind := range models.RequiredPremiumDocuments {
		found := false
		for _, d := range docs {
			if d.Kind == kind {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, kind)
		}
	}
	return missing
}

func documentsMissing(missing []string) *apperr.Error {
	e := apperr.BadRequest(apperr.CodeDocumentsMissing, "required documents are missing")
	e.Detail = strings.Join(missing, ", ")
	return e.With("missing_documents", missing)
}
