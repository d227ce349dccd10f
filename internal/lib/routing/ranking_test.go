package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(id string, price, along float64) MatchedStation {
	m := MatchedStation{Price: price, DistanceAlongRoute: along}
	m.ID = id
	return m
}

func ids(matches []MatchedStation) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}

var rankingFixture = []MatchedStation{
	match("c", 1.50, 10000),
	match("a", 1.40, 60000),
	match("b", 1.40, 20000),
	match("e", 1.40, 20000),
	match("d", 1.60, 90000),
	match("f", 1.55, 70000),
}

func TestRankCheapest_Order(t *testing.T) {
	top, err := RankCheapest(rankingFixture, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e", "a", "c"}, ids(top))

	all, err := RankCheapest(rankingFixture, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e", "a", "c", "f", "d"}, ids(all))
}

func TestRankCheapest_Deterministic(t *testing.T) {
	reversed := make([]MatchedStation, len(rankingFixture))
	for i, m := range rankingFixture {
		reversed[len(rankingFixture)-1-i] = m
	}

	first, err := RankCheapest(rankingFixture, 6)
	require.NoError(t, err)
	second, err := RankCheapest(reversed, 6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "c", rankingFixture[0].ID, "input order untouched")
}

func TestRankCheapest_InvalidN(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := RankCheapest(rankingFixture, n)
		assert.ErrorIs(t, err, ErrInvalidTopN)
	}

	top, err := RankCheapest(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRankCheapestPerSegment(t *testing.T) {
	// 50 km segments: [0,50) cheapest b, [50,100) cheapest a
	ranked, err := RankCheapestPerSegment(rankingFixture, 1, 50000)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(ranked))

	// 25 km segments: [0,25) b beats c and e, [50,75) a, [75,100) d
	ranked, err = RankCheapestPerSegment(rankingFixture, 1, 25000)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "d"}, ids(ranked))

	_, err = RankCheapestPerSegment(rankingFixture, 0, 25000)
	assert.ErrorIs(t, err, ErrInvalidTopN)
	_, err = RankCheapestPerSegment(rankingFixture, 1, 0)
	assert.Error(t, err)
}

func TestSortByRoute(t *testing.T) {
	assert.Equal(t, []string{"c", "b", "e", "a", "f", "d"}, ids(SortByRoute(rankingFixture)))
}

func TestPriceRange(t *testing.T) {
	min, max, ok := PriceRange(rankingFixture)
	require.True(t, ok)
	assert.Equal(t, 1.40, min)
	assert.Equal(t, 1.60, max)

	_, _, ok = PriceRange(nil)
	assert.False(t, ok)
}
