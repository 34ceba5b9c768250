package catalog

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"go.uber.org/zap"
)

const (
	opProductCreate  = "product_create"
	opProductUpdate  = "product_update"
	opCategoryCreate = "category_create"
	opCategoryUpdate = "category_update"
)

// Product-side runs against one category are serialized by categoryRuns.
// No collection lock is held while the Fetcher is in flight.
type Synchronizer struct {
	Store   *Store
	Fetcher Fetcher
	Log     *zap.Logger
	Metrics *SyncMetrics

	categoryRuns *locker.Locker
}

func NewSynchronizer(store *Store, f Fetcher, log *zap.Logger, m *SyncMetrics) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		Store:        store,
		Fetcher:      f,
		Log:          log,
		Metrics:      m,
		categoryRuns: locker.New(),
	}
}

func (s *Synchronizer) AfterProductCreate(ctx context.Context, p Product) error {
	if p.CategoryID <= 0 {
		return nil
	}
	return s.pushMembers(ctx, opProductCreate, p.CategoryID, p.ID)
}

// AfterProductUpdate never adds p to the member list.
func (s *Synchronizer) AfterProductUpdate(ctx context.Context, p Product) error {
	if p.CategoryID <= 0 {
		return nil
	}
	return s.pushMembers(ctx, opProductUpdate, p.CategoryID, 0)
}

func (s *Synchronizer) pushMembers(ctx context.Context, op string, categoryID, addID int) (err error) {
	log := s.Log.With(
		zap.String("sync_id", uuid.NewString()),
		zap.String("op", op),
		zap.Int("category_id", categoryID),
	)
	start := time.Now()
	defer func() {
		s.Metrics.observe(op, start, err)
		if err != nil {
			log.Error("sync failed", zap.Error(err))
			err = &SyncError{Op: op, CategoryID: categoryID, Err: err}
			return
		}
		log.Debug("sync done", zap.Duration("duration", time.Since(start)))
	}()

	key := strconv.Itoa(categoryID)
	s.categoryRuns.Lock(key)
	defer func() { _ = s.categoryRuns.Unlock(key) }()

	cat, err := s.Fetcher.FetchCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	ids := productIDs(cat.Products)
	if addID > 0 && !slices.Contains(ids, addID) {
		ids = append(ids, addID)
	}

	return s.Fetcher.PushCategoryUpdate(ctx, categoryID, CategoryInput{
		Name:     cat.Name,
		Products: ids,
	})
}

// ResolveMembers drops ids that do not resolve. Duplicates collapse to their
// first occurrence.
func (s *Synchronizer) ResolveMembers(ctx context.Context, op string, ids []int) (members []Product, err error) {
	start := time.Now()
	defer func() { s.Metrics.observe(op, start, err) }()

	ids = dedupe(ids)
	if len(ids) == 0 {
		return []Product{}, nil
	}

	members, err = s.Fetcher.FetchProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	if dropped := len(ids) - len(members); dropped > 0 {
		s.Metrics.dropped(dropped)
		s.Log.Warn("unresolvable product ids dropped",
			zap.String("op", op),
			zap.Ints("requested", ids),
			zap.Ints("resolved", productIDs(members)),
		)
	}
	return members, nil
}

// LinkProducts leaves unlisted products alone, even if they pointed at
// categoryID before.
func (s *Synchronizer) LinkProducts(categoryID int, ids []int) int {
	if len(ids) == 0 {
		return 0
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.Store.Products.UpdateWhere(
		func(p Product) bool { _, ok := want[p.ID]; return ok },
		func(p *Product) { p.CategoryID = categoryID },
	)
}

func snapshotFor(categoryID int, members []Product) []Product {
	out := make([]Product, len(members))
	for i, p := range members {
		p.CategoryID = categoryID
		out[i] = p
	}
	return out
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
