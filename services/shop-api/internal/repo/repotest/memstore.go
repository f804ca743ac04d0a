// Package repotest provides an in-memory repo.Store with transactional
// semantics: InTx works on a copy that replaces the live state only when the
// callback succeeds.
package repotest

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/models"
)

// Operation names accepted by MemStore.Fail.
const (
	OpBegin            = "tx.begin"
	OpUsersCreate      = "users.create"
	OpUsersUpdate      = "users.update"
	OpUsersDelete      = "users.delete"
	OpUsersGet         = "users.get"
	OpUsersLock        = "users.lock"
	OpCartsSave        = "carts.save"
	OpProductsGet      = "products.get"
	OpProductsDecStock = "products.decrement"
	OpTicketsCreate    = "tickets.create"
	OpOutboxEnqueue    = "outbox.enqueue"
)

type OutboxEvent struct {
	ID          string
	AggregateID string
	Type        string
	Payload     []byte
}

type state struct {
	users    map[string]models.User
	carts    map[string]models.Cart
	products map[string]models.Product
	tickets  []models.Ticket
	outbox   []OutboxEvent
}

func newState() *state {
	return &state{
		users:    map[string]models.User{},
		carts:    map[string]models.Cart{},
		products: map[string]models.Product{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, u := range s.users {
		out.users[k] = copyUser(u)
	}
	for k, c := range s.carts {
		out.carts[k] = *c.Clone()
	}
	for k, p := range s.products {
		out.products[k] = p
	}
	out.tickets = append([]models.Ticket(nil), s.tickets...)
	out.outbox = append([]OutboxEvent(nil), s.outbox...)
	return out
}

func copyUser(u models.User) models.User {
	u.Documents = append([]models.Document(nil), u.Documents...)
	return u
}

type MemStore struct {
	mu   sync.Mutex
	st   *state
	Fail map[string]error
}

func New() *MemStore {
	return &MemStore{st: newState(), Fail: map[string]error{}}
}

type view struct {
	m    *MemStore // nil inside a transaction
	st   *state
	fail map[string]error
}

func (v *view) do(op string, fn func(st *state) error) error {
	st := v.st
	if v.m != nil {
		v.m.mu.Lock()
		defer v.m.mu.Unlock()
		st = v.m.st
	}
	if err := v.fail[op]; err != nil {
		return err
	}
	return fn(st)
}

func (m *MemStore) live() *view { return &view{m: m, fail: m.Fail} }

func (m *MemStore) Users() repo.Users       { return &users{m.live()} }
func (m *MemStore) Carts() repo.Carts       { return &carts{m.live()} }
func (m *MemStore) Products() repo.Products { return &products{m.live()} }
func (m *MemStore) Tickets() repo.Tickets   { return &tickets{m.live()} }
func (m *MemStore) Outbox() repo.Outbox     { return &outbox{m.live()} }

func (m *MemStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repo.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[OpBegin]; err != nil {
		return err
	}
	work := m.st.clone()
	if err := fn(ctx, &txStore{v: &view{st: work, fail: m.Fail}}); err != nil {
		return err
	}
	m.st = work
	return nil
}

type txStore struct{ v *view }

func (t *txStore) Users() repo.Users       { return &users{t.v} }
func (t *txStore) Carts() repo.Carts       { return &carts{t.v} }
func (t *txStore) Products() repo.Products { return &products{t.v} }
func (t *txStore) Tickets() repo.Tickets   { return &tickets{t.v} }
func (t *txStore) Outbox() repo.Outbox     { return &outbox{t.v} }

func (t *txStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repo.Store) error) error {
	return fn(ctx, t)
}

// Seeding and inspection helpers.

func (m *MemStore) PutProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.products[p.ID] = p
}

func (m *MemStore) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.users[u.ID] = copyUser(u)
}

func (m *MemStore) PutCart(c models.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.carts[c.ID] = *c.Clone()
}

func (m *MemStore) Product(id string) (models.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.products[id]
	return p, ok
}

func (m *MemStore) User(id string) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[id]
	return copyUser(u), ok
}

func (m *MemStore) Cart(id string) (models.Cart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.carts[id]
	if !ok {
		return models.Cart{}, false
	}
	return *c.Clone(), true
}

func (m *MemStore) TicketList() []models.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Ticket(nil), m.st.tickets...)
}

func (m *MemStore) OutboxEvents() []OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OutboxEvent(nil), m.st.outbox...)
}

type users struct{ v *view }

func (r *users) Create(_ context.Context, u *models.User) error {
	return r.v.do(OpUsersCreate, func(st *state) error {
		for _, ex := range st.users {
			if strings.EqualFold(ex.Email, u.Email) {
				return repo.ErrDuplicate
			}
		}
		st.users[u.ID] = copyUser(*u)
		return nil
	})
}

func (r *users) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.get(OpUsersGet, id)
}

// GetForUpdate has nothing to lock since transactions already run one at a
// time; it is a separate operation so failures can be injected on it.
func (r *users) GetForUpdate(_ context.Context, id string) (*models.User, error) {
	return r.get(OpUsersLock, id)
}

func (r *users) get(op, id string) (*models.User, error) {
	var out *models.User
	err := r.v.do(op, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		cp := copyUser(u)
		out = &cp
		return nil
	})
	return out, err
}

func (r *users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.v.do(OpUsersGet, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				cp := copyUser(u)
				out = &cp
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (r *users) List(_ context.Context) ([]models.User, error) {
	var out []models.User
	err := r.v.do("users.list", func(st *state) error {
		for _, u := range st.users {
			out = append(out, copyUser(u))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r *users) Update(_ context.Context, u *models.User) error {
	return r.v.do(OpUsersUpdate, func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return repo.ErrNotFound
		}
		for id, ex := range st.users {
			if id != u.ID && strings.EqualFold(ex.Email, u.Email) {
				return repo.ErrDuplicate
			}
		}
		next := copyUser(*u)
		next.Documents = cur.Documents
		next.LastConnection = cur.LastConnection
		next.LastConnectionGitHub = cur.LastConnectionGitHub
		st.users[u.ID] = next
		return nil
	})
}

func (r *users) Delete(_ context.Context, id string) error {
	return r.v.do(OpUsersDelete, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repo.ErrNotFound
		}
		delete(st.users, id)
		return nil
	})
}

func (r *users) TouchLastConnection(_ context.Context, id string, at time.Time) error {
	return r.v.do(OpUsersUpdate, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		u.LastConnection = &at
		st.users[id] = u
		return nil
	})
}

func (r *users) TouchLastConnectionGitHub(_ context.Context, id string, at time.Time) error {
	return r.v.do(OpUsersUpdate, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		u.LastConnectionGitHub = &at
		st.users[id] = u
		return nil
	})
}

func (r *users) AddDocuments(_ context.Context, id string, docs []models.Document) error {
	return r.v.do(OpUsersUpdate, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		u.Documents = append(append([]models.Document(nil), u.Documents...), docs...)
		st.users[id] = u
		return nil
	})
}

// lastActivity mirrors the Postgres rule: the later connection time, or
// the creation time when the user never connected.
func lastActivity(u models.User) time.Time {
	var last time.Time
	for _, t := range []*time.Time{u.LastConnection, u.LastConnectionGitHub} {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	if last.IsZero() {
		return u.CreatedAt
	}
	return last
}

func (r *users) DeleteInactive(_ context.Context, before time.Time) ([]models.User, error) {
	var out []models.User
	err := r.v.do(OpUsersDelete, func(st *state) error {
		for id, u := range st.users {
			if lastActivity(u).Before(before) {
				out = append(out, copyUser(u))
				delete(st.users, id)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

type carts struct{ v *view }

func (r *carts) Create(_ context.Context, c *models.Cart) error {
	return r.v.do("carts.create", func(st *state) error {
		st.carts[c.ID] = *c.Clone()
		return nil
	})
}

func (r *carts) GetByID(_ context.Context, id string) (*models.Cart, error) {
	var out *models.Cart
	err := r.v.do("carts.get", func(st *state) error {
		c, ok := st.carts[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r *carts) GetForUpdate(ctx context.Context, id string) (*models.Cart, error) {
	return r.GetByID(ctx, id)
}

func (r *carts) List(_ context.Context) ([]models.Cart, error) {
	var out []models.Cart
	err := r.v.do("carts.list", func(st *state) error {
		for _, c := range st.carts {
			out = append(out, *c.Clone())
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *carts) Save(_ context.Context, c *models.Cart) error {
	return r.v.do(OpCartsSave, func(st *state) error {
		if _, ok := st.carts[c.ID]; !ok {
			return repo.ErrNotFound
		}
		st.carts[c.ID] = *c.Clone()
		return nil
	})
}

func (r *carts) Delete(_ context.Context, id string) error {
	return r.v.do("carts.delete", func(st *state) error {
		if _, ok := st.carts[id]; !ok {
			return repo.ErrNotFound
		}
		delete(st.carts, id)
		return nil
	})
}

type products struct{ v *view }

func (r *products) GetByID(_ context.Context, id string) (*models.Product, error) {
	var out *models.Product
	err := r.v.do(OpProductsGet, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *products) DecrementStock(_ context.Context, id string, qty int) (bool, error) {
	var ok bool
	err := r.v.do(OpProductsDecStock, func(st *state) error {
		p, found := st.products[id]
		if !found || p.Stock < qty {
			return nil
		}
		p.Stock -= qty
		st.products[id] = p
		ok = true
		return nil
	})
	return ok, err
}

type tickets struct{ v *view }

func (r *tickets) Create(_ context.Context, t *models.Ticket) error {
	return r.v.do(OpTicketsCreate, func(st *state) error {
		for _, ex := range st.tickets {
			if ex.Code == t.Code {
				return repo.ErrDuplicate
			}
		}
		cp := *t
		cp.Lines = append([]models.TicketLine(nil), t.Lines...)
		st.tickets = append(st.tickets, cp)
		return nil
	})
}

type outbox struct{ v *view }

func (r *outbox) Enqueue(_ context.Context, eventID, aggregateID, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if eventID == "" || aggregateID == "" {
		return errors.New("outbox: event and aggregate ids are required")
	}
	return r.v.do(OpOutboxEnqueue, func(st *state) error {
		st.outbox = append(st.outbox, OutboxEvent{ID: eventID, AggregateID: aggregateID, Type: eventType, Payload: b})
		return nil
	})
}
