package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertProduct(s *Store, name string) Product {
	return s.Products.Insert(func(id int) Product { return Product{ID: id, Name: name} })
}

func TestCollection_FirstIDIsOne(t *testing.T) {
	s := NewStore(nil)

	p := insertProduct(s, "RoomVerb")
	c := s.Categories.Insert(func(id int) Category { return Category{ID: id, Name: "Reverb"} })

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, 1, c.ID, "ids are allocated per collection")
}

func TestCollection_ListKeepsInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	for _, n := range []string{"a", "b", "c"} {
		insertProduct(s, n)
	}
	s.Products.Remove(2)
	insertProduct(s, "d")

	var names []string
	for _, p := range s.Products.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "c", "d"}, names)
}

func TestCollection_MaxPlusOneReusesDeletedMaxID(t *testing.T) {
	s := NewStore(nil)
	insertProduct(s, "a")
	insertProduct(s, "b")

	require.True(t, s.Products.Remove(2))
	p := insertProduct(s, "c")
	assert.Equal(t, 2, p.ID)

	require.True(t, s.Products.Remove(1))
	p = insertProduct(s, "d")
	assert.Equal(t, 3, p.ID, "only the maximum id is reclaimed")
}

func TestCollection_MonotonicNeverReuses(t *testing.T) {
	newAlloc, err := AllocatorFactory("monotonic")
	require.NoError(t, err)
	s := NewStore(newAlloc)

	insertProduct(s, "a")
	insertProduct(s, "b")
	s.Products.Remove(2)

	p := insertProduct(s, "c")
	assert.Equal(t, 3, p.ID)
}

func TestAllocatorFactory_Unknown(t *testing.T) {
	_, err := AllocatorFactory("uuid")
	assert.Error(t, err)
}

func TestCollection_RemoveAbsentIsNoop(t *testing.T) {
	s := NewStore(nil)
	insertProduct(s, "a")

	assert.False(t, s.Products.Remove(42))
	assert.Equal(t, 1, s.Products.Len())
}

func TestCollection_GetAndReplace(t *testing.T) {
	s := NewStore(nil)
	insertProduct(s, "a")

	_, ok := s.Products.Get(2)
	assert.False(t, ok)

	_, ok = s.Products.Replace(2, func(p *Product) { p.Name = "x" })
	assert.False(t, ok)

	got, ok := s.Products.Replace(1, func(p *Product) { p.Name = "renamed" })
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)

	got, ok = s.Products.Get(1)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)
}

func TestCollection_CategorySnapshotIsNotAliased(t *testing.T) {
	s := NewStore(nil)
	members := []Product{{ID: 7, Name: "orig"}}
	s.Categories.Insert(func(id int) Category { return Category{ID: id, Products: members} })

	members[0].Name = "caller mutated"
	got, _ := s.Categories.Get(1)
	assert.Equal(t, "orig", got.Products[0].Name)

	got.Products[0].Name = "reader mutated"
	again, _ := s.Categories.Get(1)
	assert.Equal(t, "orig", again.Products[0].Name)
}

func TestCollection_ConcurrentInsertsGetUniqueIDs(t *testing.T) {
	s := NewStore(nil)

	const n = 64
	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- insertProduct(s, "p").ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestCollection_UpdateWhere(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 4; i++ {
		insertProduct(s, "p")
	}

	n := s.Products.UpdateWhere(
		func(p Product) bool { return p.ID%2 == 0 },
		func(p *Product) { p.CategoryID = 9 },
	)
	assert.Equal(t, 2, n)

	for _, p := range s.Products.List() {
		if p.ID%2 == 0 {
			assert.Equal(t, 9, p.CategoryID)
		} else {
			assert.Zero(t, p.CategoryID)
		}
	}
}
