package catalog

// No code path holds both collection locks at once.
type Store struct {
	Products   *Collection[Product]
	Categories *Collection[Category]
}

func NewStore(newAlloc func() IDAllocator) *Store {
	if newAlloc == nil {
		newAlloc = func() IDAllocator { return MaxPlusOne{} }
	}
	return &Store{
		Products: newCollection(
			func(p Product) int { return p.ID },
			nil,
			newAlloc(),
		),
		Categories: newCollection(
			func(c Category) int { return c.ID },
			cloneCategory,
			newAlloc(),
		),
	}
}
