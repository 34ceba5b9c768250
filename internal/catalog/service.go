package catalog

import (
	"context"

	"go.uber.org/zap"
)

// Service releases the collection lock before asking the Synchronizer to
// update the other collection. A failed sync keeps the local mutation and
// returns a *SyncError.
type Service struct {
	Store *Store
	Sync  *Synchronizer
	Log   *zap.Logger
}

func NewService(store *Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Store: store, Log: log}
}

func (s *Service) ListProducts(_ context.Context) []Product {
	return s.Store.Products.List()
}

func (s *Service) GetProduct(_ context.Context, id int) (Product, error) {
	p, ok := s.Store.Products.Get(id)
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// The returned product is valid even when err is a *SyncError.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	p := s.Store.Products.Insert(func(id int) Product {
		p := Product{ID: id}
		in.apply(&p)
		return p
	})
	s.Log.Info("product created", zap.Int("product_id", p.ID), zap.Int("category_id", p.CategoryID))

	if s.Sync == nil {
		return p, nil
	}
	return p, s.Sync.AfterProductCreate(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, id int, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	p, ok := s.Store.Products.Replace(id, in.apply)
	if !ok {
		return Product{}, ErrNotFound
	}
	s.Log.Info("product updated", zap.Int("product_id", p.ID), zap.Int("category_id", p.CategoryID))

	if s.Sync == nil {
		return p, nil
	}
	return p, s.Sync.AfterProductUpdate(ctx, p)
}

// Snapshots that list the product keep it.
func (s *Service) DeleteProduct(_ context.Context, id int) {
	if s.Store.Products.Remove(id) {
		s.Log.Info("product deleted", zap.Int("product_id", id))
	}
}

func (s *Service) ListCategories(_ context.Context) []Category {
	return s.Store.Categories.List()
}

func (s *Service) GetCategory(_ context.Context, id int) (Category, error) {
	c, ok := s.Store.Categories.Get(id)
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

// A failed resolution creates the category empty.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if err := in.Validate(); err != nil {
		return Category{}, err
	}

	members := []Product{}
	if s.Sync != nil {
		resolved, err := s.Sync.ResolveMembers(ctx, opCategoryCreate, in.Products)
		if err != nil {
			s.Log.Warn("resolve category members failed, creating empty",
				zap.String("name", in.Name), zap.Error(err))
		} else {
			members = resolved
		}
	}

	c := s.Store.Categories.Insert(func(id int) Category {
		return Category{ID: id, Name: in.Name, Products: snapshotFor(id, members)}
	})
	if s.Sync != nil {
		s.Sync.LinkProducts(c.ID, productIDs(members))
	}
	s.Log.Info("category created", zap.Int("category_id", c.ID), zap.Ints("products", productIDs(c.Products)))
	return c, nil
}

// UpdateCategory stamps the category id on the snapshot copies only. The
// product collection is not touched, so a re-push of a stale member list
// cannot pull a moved product back. A failed resolution changes nothing.
func (s *Service) UpdateCategory(ctx context.Context, id int, in CategoryInput) (Category, error) {
	if err := in.Validate(); err != nil {
		return Category{}, err
	}
	if _, ok := s.Store.Categories.Get(id); !ok {
		return Category{}, ErrNotFound
	}

	members := []Product{}
	if s.Sync != nil {
		resolved, err := s.Sync.ResolveMembers(ctx, opCategoryUpdate, in.Products)
		if err != nil {
			return Category{}, &SyncError{Op: opCategoryUpdate, CategoryID: id, Err: err}
		}
		members = resolved
	}

	snapshot := snapshotFor(id, members)
	c, ok := s.Store.Categories.Replace(id, func(c *Category) {
		c.Name = in.Name
		c.Products = snapshot
	})
	if !ok {
		// Deleted while members were being resolved.
		return Category{}, ErrNotFound
	}
	s.Log.Info("category updated", zap.Int("category_id", id), zap.Ints("products", productIDs(c.Products)))
	return c, nil
}

func (s *Service) DeleteCategory(_ context.Context, id int) {
	if s.Store.Categories.Remove(id) {
		s.Log.Info("category deleted", zap.Int("category_id", id))
	}
}
