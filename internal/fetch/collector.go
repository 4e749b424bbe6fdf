package fetch

import (
	"sort"
	"sync"

	"github.com/handiism/manga-downloader/internal/model"
)

// Collector gathers fetch results from concurrent fetch tasks.
//
// Collector is safe for concurrent use. Results may arrive in any order;
// Results returns them sorted by page index.
type Collector struct {
	mu      sync.Mutex
	results []model.FetchResult
}

// NewCollector creates a Collector sized for n results.
func NewCollector(n int) *Collector {
	return &Collector{results: make([]model.FetchResult, 0, n)}
}

// Add records one result.
func (c *Collector) Add(r model.FetchResult) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

// Results returns a copy of the recorded results ordered by Index.
func (c *Collector) Results() []model.FetchResult {
	c.mu.Lock()
	out := make([]model.FetchResult, len(c.results))
	copy(out, c.results)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
