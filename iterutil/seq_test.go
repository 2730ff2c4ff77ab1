package iterutil_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/musicflow/iterutil"
)

func TestWithIndex(t *testing.T) {
	t.Parallel()

	var (
		indexes []int
		values  []string
	)
	for i, v := range iterutil.WithIndex(slices.Values([]string{"a", "b", "c"})) {
		indexes = append(indexes, i)
		values = append(values, v)
	}
	assert.Exactly(t, []int{0, 1, 2}, indexes)
	assert.Exactly(t, []string{"a", "b", "c"}, values)
}

func TestMap(t *testing.T) {
	t.Parallel()

	type Res struct {
		I int
		V int
	}
	got := iterutil.Map([]int{0, 1, 2}, func(i int, v int) Res { return Res{I: i * 2, V: v + 10} })
	want := []Res{
		{I: 0, V: 10},
		{I: 2, V: 11},
		{I: 4, V: 12},
	}
	assert.Exactly(t, want, got)
}
