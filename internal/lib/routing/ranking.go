package routing

import (
	"fmt"
	"math"
	"sort"
)

// less orders by price, then by distance along the route, then by catalog ID
func less(a, b MatchedStation) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.DistanceAlongRoute != b.DistanceAlongRoute {
		return a.DistanceAlongRoute < b.DistanceAlongRoute
	}
	return a.ID < b.ID
}

// SortByPrice returns a copy of matches in ranking order
func SortByPrice(matches []MatchedStation) []MatchedStation {
	sorted := make([]MatchedStation, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// SortByRoute returns a copy of matches ordered by position along the route
func SortByRoute(matches []MatchedStation) []MatchedStation {
	sorted := make([]MatchedStation, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.DistanceAlongRoute != b.DistanceAlongRoute {
			return a.DistanceAlongRoute < b.DistanceAlongRoute
		}
		return less(a, b)
	})
	return sorted
}

// RankCheapest returns the n cheapest matches in ranking order
func RankCheapest(matches []MatchedStation, n int) ([]MatchedStation, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopN, n)
	}
	sorted := SortByPrice(matches)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted, nil
}

// RankCheapestPerSegment returns the global top n plus the cheapest match of
// every segmentLength-meter stretch of the route, without duplicates and
// ordered by position along the route.
func RankCheapestPerSegment(matches []MatchedStation, n int, segmentLength float64) ([]MatchedStation, error) {
	top, err := RankCheapest(matches, n)
	if err != nil {
		return nil, err
	}
	if segmentLength <= 0 || math.IsNaN(segmentLength) {
		return nil, fmt.Errorf("segment length must be positive, got %v", segmentLength)
	}

	cheapest := make(map[int]MatchedStation)
	for _, m := range matches {
		bucket := int(m.DistanceAlongRoute / segmentLength)
		if current, ok := cheapest[bucket]; !ok || less(m, current) {
			cheapest[bucket] = m
		}
	}

	seen := make(map[string]bool, len(top)+len(cheapest))
	union := make([]MatchedStation, 0, len(top)+len(cheapest))
	add := func(m MatchedStation) {
		if seen[m.ID] {
			return
		}
		seen[m.ID] = true
		union = append(union, m)
	}
	for _, m := range top {
		add(m)
	}
	buckets := make([]int, 0, len(cheapest))
	for b := range cheapest {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)
	for _, b := range buckets {
		add(cheapest[b])
	}

	return SortByRoute(union), nil
}

// PriceRange returns the lowest and highest price among matches
func PriceRange(matches []MatchedStation) (min, max float64, ok bool) {
	if len(matches) == 0 {
		return 0, 0, false
	}
	min, max = matches[0].Price, matches[0].Price
	for _, m := range matches[1:] {
		min = math.Min(min, m.Price)
		max = math.Max(max, m.Price)
	}
	return min, max, true
}
