package catalog

import "fmt"

// IDAllocator is called under the collection lock. maxID is 0 when the
// collection is empty.
type IDAllocator interface {
	Next(maxID int) int
}

// MaxPlusOne reuses the id of a deleted highest record.
type MaxPlusOne struct{}

func (MaxPlusOne) Next(maxID int) int { return maxID + 1 }

type Monotonic struct {
	last int
}

func (m *Monotonic) Next(maxID int) int {
	if maxID > m.last {
		m.last = maxID
	}
	m.last++
	return m.last
}

// Each collection needs its own allocator instance.
func AllocatorFactory(kind string) (func() IDAllocator, error) {
	switch kind {
	case "", "max":
		return func() IDAllocator { return MaxPlusOne{} }, nil
	case "monotonic":
		return func() IDAllocator { return &Monotonic{} }, nil
	default:
		return nil, fmt.Errorf("unknown id allocator %q", kind)
	}
}
