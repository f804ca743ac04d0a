package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

type CartService struct {
	Store repo.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

type AddItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartLine struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	Code           string `json:"code"`
	Thumbnail      string `json:"thumbnail"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type CartView struct {
	CartID     string     `json:"cart_id"`
	Lines      []CartLine `json:"lines"`
	TotalCents int64      `json:"total_cents"`
}

// consolidate validates the request and merges repeated product ids,
// keeping first-seen order.
func consolidate(items []AddItem) ([]AddItem, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("products list is empty", "expected at least one {product_id, quantity}")
	}
	idx := make(map[string]int, len(items))
	out := make([]AddItem, 0, len(items))
	for _, it := range items {
		if err := checkID("product", it.ProductID); err != nil {
			return nil, err
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1",
				fmt.Sprintf("product %s has quantity %d", it.ProductID, it.Quantity))
		}
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

// cartTotal prices every line at the product's current price.
func cartTotal(ctx context.Context, products repo.Products, items []models.CartItem) (int64, error) {
	var total int64
	for _, it := range items {
		p, err := loadProduct(ctx, products, it.ProductID)
		if err != nil {
			return 0, err
		}
		total += p.PriceCents * int64(it.Quantity)
	}
	return total, nil
}

// AddProducts applies all items or none. The user's cart is created on first use.
func (s *CartService) AddProducts(ctx context.Context, userID string, items []AddItem) (*models.Cart, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	merged, err := consolidate(items)
	if err != nil {
		return nil, err
	}

	var out *models.Cart
	err = s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		cart, err := s.ensureCart(ctx, tx, u)
		if err != nil {
			return err
		}

		for _, it := range merged {
			p, err := loadProduct(ctx, tx.Products(), it.ProductID)
			if err != nil {
				return err
			}
			i, found := cart.Find(p.ID)
			desired := it.Quantity
			if found {
				desired += cart.Items[i].Quantity
			}
			if desired > p.Stock {
				return insufficientStock(p, desired)
			}
			if found {
				cart.Items[i].Quantity = desired
			} else {
				cart.Items = append(cart.Items, models.CartItem{ProductID: p.ID, Quantity: desired})
			}
		}

		if err := s.save(ctx, tx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info().Str("user_id", userID).Str("cart_id", out.ID).Int("lines", len(out.Items)).Msg("cart updated")
	return out, nil
}

func (s *CartService) ensureCart(ctx context.Context, tx repo.Store, u *models.User) (*models.Cart, error) {
	if u.CartID != "" {
		c, err := tx.Carts().GetForUpdate(ctx, u.CartID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("load cart %s: %w", u.CartID, err)
		}
	}

	now := clock(s.Now)
	c := &models.Cart{ID: uuid.NewString(), Items: []models.CartItem{}, CreatedAt: now, UpdatedAt: now}
	if err := tx.Carts().Create(ctx, c); err != nil {
		return nil, err
	}
	u.CartID = c.ID
	u.UpdatedAt = now
	if err := tx.Users().Update(ctx, u); err != nil {
		return nil, fmt.Errorf("attach cart: %w", err)
	}
	return c, nil
}

func (s *CartService) save(ctx context.Context, tx repo.Store, cart *models.Cart) error {
	total, err := cartTotal(ctx, tx.Products(), cart.Items)
	if err != nil {
		return err
	}
	cart.AmountCents = total
	cart.UpdatedAt = clock(s.Now)
	if err := tx.Carts().Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart %s: %w", cart.ID, err)
	}
	return nil
}

func (s *CartService) RemoveProduct(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, apperr.Validation("product_id is required", "")
	}
	if err := checkID("product", productID); err != nil {
		return nil, err
	}

	var out *models.Cart
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		cart, err := userCart(ctx, tx, u, true)
		if err != nil {
			return err
		}
		i, found := cart.Find(productID)
		if !found {
			return apperr.NotFound(apperr.CodeItemNotInCart, "product is not in the cart").With("product_id", productID)
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		if err := s.save(ctx, tx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	return out, err
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*models.Cart, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}

	var out *models.Cart
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		cart, err := userCart(ctx, tx, u, true)
		if err != nil {
			return err
		}
		cart.Items = []models.CartItem{}
		if err := s.save(ctx, tx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	return out, err
}

func (s *CartService) ShowCart(ctx context.Context, userID string) (*CartView, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	u, err := loadUser(ctx, s.Store, userID)
	if err != nil {
		return nil, err
	}
	cart, err := userCart(ctx, s.Store, u, false)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cart.ID, Lines: make([]CartLine, 0, len(cart.Items))}
	for _, it := range cart.Items {
		p, err := loadProduct(ctx, s.Store.Products(), it.ProductID)
		if err != nil {
			return nil, err
		}
		sub := p.PriceCents * int64(it.Quantity)
		view.Lines = append(view.Lines, CartLine{
			ProductID:      p.ID,
			Title:          p.Title,
			Code:           p.Code,
			Thumbnail:      p.Thumbnail,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			SubtotalCents:  sub,
		})
		view.TotalCents += sub
	}
	return view, nil
}

func (s *CartService) ListCarts(ctx context.Context) ([]models.Cart, error) {
	carts, err := s.Store.Carts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	if carts == nil {
		carts = []models.Cart{}
	}
	return carts, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*models.Cart, error) {
	if err := checkID("cart", cartID); err != nil {
		return nil, err
	}
	c, err := s.Store.Carts().GetByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeCartNotFound, "cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	return c, nil
}
