package catalog

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

type Fetcher interface {
	FetchCategory(ctx context.Context, id int) (Category, error)
	FetchProduct(ctx context.Context, id int) (Product, error)
	FetchProducts(ctx context.Context, ids []int) ([]Product, error)
	PushCategoryUpdate(ctx context.Context, id int, payload CategoryInput) error
}

const fetchProductsParallelism = 4

// fetchProducts keeps input order and omits ids that are not found. Any other
// error cancels the rest and discards partial results.
func fetchProducts(ctx context.Context, ids []int, get func(context.Context, int) (Product, error)) ([]Product, error) {
	found := make([]*Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchProductsParallelism)
	for i, id := range ids {
		g.Go(func() error {
			p, err := get(gctx, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(ids))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Service.Sync must be set before PushCategoryUpdate is used.
type LocalFetcher struct {
	Service *Service
}

func (f *LocalFetcher) FetchCategory(ctx context.Context, id int) (Category, error) {
	return f.Service.GetCategory(ctx, id)
}

func (f *LocalFetcher) FetchProduct(ctx context.Context, id int) (Product, error) {
	return f.Service.GetProduct(ctx, id)
}

func (f *LocalFetcher) FetchProducts(ctx context.Context, ids []int) ([]Product, error) {
	return fetchProducts(ctx, ids, f.FetchProduct)
}

func (f *LocalFetcher) PushCategoryUpdate(ctx context.Context, id int, payload CategoryInput) error {
	_, err := f.Service.UpdateCategory(ctx, id, payload)
	return err
}
