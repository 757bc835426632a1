package algo

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ranked struct {
	name  string
	score int
}

func byScore(a, b ranked) int {
	if c := Desc(a.score, b.score); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

func TestTopN(t *testing.T) {
	items := []ranked{{"c", 1}, {"a", 3}, {"b", 3}, {"d", 2}}

	got := TopN(items, 2, byScore)
	assert.Equal(t, []ranked{{"a", 3}, {"b", 3}}, got)
}

func TestTopNNoLimit(t *testing.T) {
	items := []ranked{{"c", 1}, {"a", 3}, {"d", 2}}

	assert.Len(t, TopN(items, 0, byScore), 3)
	assert.Len(t, TopN(items, 10, byScore), 3)
	assert.Equal(t, "a", items[0].name)
}

func TestDesc(t *testing.T) {
	assert.Equal(t, -1, Desc(2, 1))
	assert.Equal(t, 1, Desc(1, 2))
	assert.Equal(t, 0, Desc("x", "x"))
}
