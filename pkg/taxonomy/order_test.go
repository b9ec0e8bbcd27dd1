package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type instance struct {
	key string
	id  string
}

func (i instance) Key() string { return i.key }

func ids(items []instance) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestSortByOrderUndefinedLast(t *testing.T) {
	c := loadTestCatalog(t)

	in := []instance{{"c", "C"}, {"b", "B"}, {"a", "A"}}
	got := SortByOrder(c, in)

	assert.Equal(t, []string{"A", "B", "C"}, ids(got))
	assert.Equal(t, []string{"C", "B", "A"}, ids(in), "input must not be mutated")
}

func TestSortByOrderIsStable(t *testing.T) {
	c := loadTestCatalog(t)

	in := []instance{
		{"zzz", "u1"},
		{"b", "b1"},
		{"c", "c1"},
		{"yyy", "u2"},
		{"old_b", "b2"},
		{"c", "c2"},
		{"a", "a1"},
		{"xxx", "u3"},
		{"b", "b3"},
	}
	got := SortByOrder(c, in)

	// Equal keys keep input order, unregistered keys go last in input order.
	assert.Equal(t,
		[]string{"a1", "b1", "b2", "b3", "c1", "c2", "u1", "u2", "u3"},
		ids(got))
}

func TestSortByOrderEmpty(t *testing.T) {
	c := loadTestCatalog(t)
	assert.Empty(t, SortByOrder[instance](c, nil))
}
