package catalog

import (
	"sort"
	"strings"

	"github.com/kalorio/kalorio/internal/domain"
)

// Rank buckets in precedence order. Within a bucket the dataset's insertion
// order is preserved by the stable sort.
const (
	rankExactName = iota
	rankNamePosition
	rankBrandOrKeyword
)

type scoredProduct struct {
	product *domain.Product
	rank    int
	pos     int
}

func matchScore(p *domain.Product, query string) (rank, pos int, ok bool) {
	name := strings.ToLower(p.Name)
	if name == query {
		return rankExactName, 0, true
	}
	if i := strings.Index(name, query); i >= 0 {
		return rankNamePosition, i, true
	}
	if strings.Contains(strings.ToLower(p.Brand), query) {
		return rankBrandOrKeyword, 0, true
	}
	for _, kw := range p.Keywords {
		if strings.Contains(strings.ToLower(kw), query) {
			return rankBrandOrKeyword, 0, true
		}
	}
	return 0, 0, false
}

// SearchAmong ranks any product set against a free text query:
// exact name match, then earliest substring position in the name, then
// brand/keyword containment. The empty query matches nothing.
func SearchAmong(products []*domain.Product, query string) []*domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*domain.Product{}
	}

	scored := make([]scoredProduct, 0, 8)
	for _, p := range products {
		if rank, pos, ok := matchScore(p, query); ok {
			scored = append(scored, scoredProduct{product: p, rank: rank, pos: pos})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].rank != scored[j].rank {
			return scored[i].rank < scored[j].rank
		}
		return scored[i].pos < scored[j].pos
	})

	out := make([]*domain.Product, len(scored))
	for i, s := range scored {
		out[i] = s.product
	}
	return out
}

// keywordMatches resolves the rank-3 keyword bucket through the inverted
// index instead of rescanning every product's keyword list.
func (c *Catalog) keywordMatches(query string) map[int]bool {
	hits := make(map[int]bool)
	for kw, idxs := range c.keywords {
		if strings.Contains(kw, query) {
			for _, i := range idxs {
				hits[i] = true
			}
		}
	}
	return hits
}

// Search ranks the curated dataset against a free text query. Same rank
// buckets as SearchAmong; keyword containment is answered by the index built
// at load.
func (c *Catalog) Search(query string) []*domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*domain.Product{}
	}

	kwHits := c.keywordMatches(query)
	scored := make([]scoredProduct, 0, 8)
	for i, p := range c.products {
		name := strings.ToLower(p.Name)
		s := scoredProduct{product: p}
		switch {
		case name == query:
			s.rank = rankExactName
		case strings.Contains(name, query):
			s.rank, s.pos = rankNamePosition, strings.Index(name, query)
		case strings.Contains(strings.ToLower(p.Brand), query) || kwHits[i]:
			s.rank = rankBrandOrKeyword
		default:
			continue
		}
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].rank != scored[j].rank {
			return scored[i].rank < scored[j].rank
		}
		return scored[i].pos < scored[j].pos
	})

	out := make([]*domain.Product, len(scored))
	for i, s := range scored {
		out[i] = s.product
	}
	return out
}
