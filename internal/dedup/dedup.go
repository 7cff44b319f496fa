package dedup

import (
	"sort"
	"sync"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// DefaultSimilarityThreshold is the similarity above which two content
// hashes are treated as the same posting.
const DefaultSimilarityThreshold = 0.85

// Stats summarizes one or more deduplication passes.
type Stats struct {
	Processed    int     `json:"processed"`
	Removed      int     `json:"removed"`
	ExactID      int     `json:"exact_id"`
	URL          int     `json:"url"`
	TitleCompany int     `json:"title_company"`
	Similarity   int     `json:"similarity"`
	Rate         float64 `json:"rate"`
}

// Engine removes duplicate postings across pages and sources. Fingerprints
// accumulate between calls until Reset, so postings delivered earlier in a
// session are never delivered again.
type Engine struct {
	mu        sync.Mutex
	threshold float64

	seenIDs    map[string]struct{}
	seenURLs   map[string]struct{}
	seenPairs  map[string]struct{}
	seenHashes map[string]struct{}
	hashes     []string

	stats Stats
}

// NewEngine creates an Engine with the given similarity threshold. A
// threshold outside (0, 1] falls back to the default.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	e := &Engine{threshold: threshold}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.seenIDs = make(map[string]struct{})
	e.seenURLs = make(map[string]struct{})
	e.seenPairs = make(map[string]struct{})
	e.seenHashes = make(map[string]struct{})
	e.hashes = e.hashes[:0]
	e.stats = Stats{}
}

// Reset clears all accumulated fingerprints and statistics.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// SeedIDs marks the given posting IDs as already delivered without
// recording any other fingerprints for them.
func (e *Engine) SeedIDs(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			e.seenIDs[id] = struct{}{}
		}
	}
}

// Deduplicate returns the postings not seen before, in input order, and
// records fingerprints for the kept ones.
func (e *Engine) Deduplicate(postings []jobs.Posting) []jobs.Posting {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		e.stats.Processed++
		if e.seen(p) {
			e.stats.Removed++
			continue
		}
		e.record(p)
		kept = append(kept, p)
	}

	if e.stats.Processed > 0 {
		e.stats.Rate = float64(e.stats.Removed) / float64(e.stats.Processed)
	}
	return kept
}

// DeduplicateBySource deduplicates postings grouped by source, processing
// sources in priority order so the higher-priority copy of a duplicate
// wins. Sources absent from the priority list run last, alphabetically.
func (e *Engine) DeduplicateBySource(bySource map[string][]jobs.Posting, priority []string) []jobs.Posting {
	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		rank[name] = i
	}

	names := make([]string, 0, len(bySource))
	for name := range bySource {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		if iok != jok {
			return iok
		}
		return ri < rj
	})

	var merged []jobs.Posting
	for _, name := range names {
		merged = append(merged, e.Deduplicate(bySource[name])...)
	}
	return merged
}

// Seen reports whether the posting matches a recorded fingerprint,
// without recording anything.
func (e *Engine) Seen(p jobs.Posting) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen(p)
}

// Record stores the posting's fingerprints without returning it.
func (e *Engine) Record(p jobs.Posting) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.seen(p) {
		e.record(p)
	}
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// seen checks fingerprints cheapest-first: exact ID, source URL,
// title+company pair, content hash, then similarity against prior hashes.
// Callers must hold e.mu.
func (e *Engine) seen(p jobs.Posting) bool {
	if p.ID != "" {
		if _, ok := e.seenIDs[p.ID]; ok {
			e.stats.ExactID++
			return true
		}
	}
	if p.SourceURL != "" {
		if _, ok := e.seenURLs[p.SourceURL]; ok {
			e.stats.URL++
			return true
		}
	}
	if _, ok := e.seenPairs[PairKey(p)]; ok {
		e.stats.TitleCompany++
		return true
	}

	hash := ContentHash(p)
	if _, ok := e.seenHashes[hash]; ok {
		e.stats.Similarity++
		return true
	}
	for _, prior := range e.hashes {
		if Similarity(hash, prior) > e.threshold {
			e.stats.Similarity++
			return true
		}
	}
	return false
}

func (e *Engine) record(p jobs.Posting) {
	if p.ID != "" {
		e.seenIDs[p.ID] = struct{}{}
	}
	if p.SourceURL != "" {
		e.seenURLs[p.SourceURL] = struct{}{}
	}
	e.seenPairs[PairKey(p)] = struct{}{}
	hash := ContentHash(p)
	e.seenHashes[hash] = struct{}{}
	e.hashes = append(e.hashes, hash)
}
