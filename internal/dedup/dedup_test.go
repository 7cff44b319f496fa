package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and collapses whitespace",
			input:    "  Senior   Go\tDeveloper ",
			expected: "senior go developer",
		},
		{
			name:     "strips punctuation",
			input:    "Front-End Developer (Remote)",
			expected: "frontend developer remote",
		},
		{
			name:     "removes corporate suffixes",
			input:    "Acme Inc.",
			expected: "acme",
		},
		{
			name:     "keeps suffix words embedded in other words",
			input:    "Incline Labs",
			expected: "incline labs",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("backend engineer", "backend engineer"))
	assert.Equal(t, 0.0, Similarity("", "backend engineer"))
	assert.Equal(t, 0.0, Similarity("backend engineer", ""))

	// One edit in a 16-rune string.
	got := Similarity("backend engineer", "backend enginees")
	assert.InDelta(t, 15.0/16.0, got, 1e-9)
}

func posting(id, title, company string) jobs.Posting {
	return jobs.Posting{
		ID:        id,
		Title:     title,
		Company:   company,
		Location:  "Remote",
		Type:      "Full-time",
		Source:    "testboard",
		SourceURL: "https://example.com/" + id,
	}
}

func TestEngineDeduplicate(t *testing.T) {
	t.Run("exact id", func(t *testing.T) {
		e := NewEngine(0)
		a := posting("a-1", "Backend Engineer", "Acme")
		dup := posting("a-1", "Different Title", "Other Co")
		dup.SourceURL = "https://example.com/other"

		kept := e.Deduplicate([]jobs.Posting{a, dup})
		require.Len(t, kept, 1)
		assert.Equal(t, "Backend Engineer", kept[0].Title)
		assert.Equal(t, 1, e.Stats().ExactID)
	})

	t.Run("source url", func(t *testing.T) {
		e := NewEngine(0)
		a := posting("a-1", "Backend Engineer", "Acme")
		b := posting("a-2", "Platform Engineer", "Initech")
		b.SourceURL = a.SourceURL

		kept := e.Deduplicate([]jobs.Posting{a, b})
		require.Len(t, kept, 1)
		assert.Equal(t, 1, e.Stats().URL)
	})

	t.Run("title company pair across sources", func(t *testing.T) {
		e := NewEngine(0)
		a := posting("a-1", "Backend Engineer", "Acme Inc")
		b := posting("b-7", "backend engineer", "ACME")
		b.Source = "otherboard"
		b.SourceURL = "https://other.example.com/b-7"

		kept := e.Deduplicate([]jobs.Posting{a, b})
		require.Len(t, kept, 1)
		assert.Equal(t, 1, e.Stats().TitleCompany)
	})

	t.Run("idempotent on repeated input", func(t *testing.T) {
		e := NewEngine(0)
		batch := []jobs.Posting{
			posting("a-1", "Backend Engineer", "Acme"),
			posting("a-2", "Data Scientist", "Initech"),
		}

		first := e.Deduplicate(batch)
		second := e.Deduplicate(batch)
		assert.Len(t, first, 2)
		assert.Empty(t, second)
	})

	t.Run("reset clears fingerprints", func(t *testing.T) {
		e := NewEngine(0)
		batch := []jobs.Posting{posting("a-1", "Backend Engineer", "Acme")}

		e.Deduplicate(batch)
		e.Reset()
		kept := e.Deduplicate(batch)
		assert.Len(t, kept, 1)
		assert.Equal(t, Stats{Processed: 1}, e.Stats())
	})
}

func TestEngineSimilarityThreshold(t *testing.T) {
	a := posting("a-1", "Backend Engineer", "Acme")
	a.Source = ""
	b := posting("b-1", "Backend Enginees", "Acme")
	b.Source = ""
	b.SourceURL = "https://other.example.com/b-1"

	s := Similarity(ContentHash(a), ContentHash(b))
	require.Greater(t, s, 0.0)
	require.Less(t, s, 1.0)

	t.Run("at threshold keeps both", func(t *testing.T) {
		e := NewEngine(s)
		kept := e.Deduplicate([]jobs.Posting{a, b})
		assert.Len(t, kept, 2)
	})

	t.Run("below threshold merges", func(t *testing.T) {
		e := NewEngine(s - 0.0001)
		kept := e.Deduplicate([]jobs.Posting{a, b})
		require.Len(t, kept, 1)
		assert.Equal(t, "a-1", kept[0].ID)
		assert.Equal(t, 1, e.Stats().Similarity)
	})
}

func TestEngineDeduplicateBySource(t *testing.T) {
	primary := posting("p-1", "Backend Engineer", "Acme")
	primary.Source = "primary"
	shadow := posting("s-1", "Backend Engineer", "Acme")
	shadow.Source = "secondary"
	shadow.SourceURL = "https://secondary.example.com/s-1"
	unique := posting("s-2", "Data Scientist", "Initech")
	unique.Source = "secondary"
	unique.SourceURL = "https://secondary.example.com/s-2"

	e := NewEngine(0)
	kept := e.DeduplicateBySource(map[string][]jobs.Posting{
		"secondary": {shadow, unique},
		"primary":   {primary},
	}, []string{"primary", "secondary"})

	require.Len(t, kept, 2)
	assert.Equal(t, "p-1", kept[0].ID)
	assert.Equal(t, "s-2", kept[1].ID)

	stats := e.Stats()
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.Removed)
	assert.InDelta(t, 1.0/3.0, stats.Rate, 1e-9)
}

func TestEngineSeedIDs(t *testing.T) {
	e := NewEngine(0)
	e.SeedIDs([]string{"a-1", ""})

	kept := e.Deduplicate([]jobs.Posting{
		posting("a-1", "Backend Engineer", "Acme"),
		posting("a-2", "Frontend Engineer", "Globex"),
	})
	require.Len(t, kept, 1)
	assert.Equal(t, "a-2", kept[0].ID)
}

func TestEngineSeenAndRecord(t *testing.T) {
	e := NewEngine(0)
	p := posting("a-1", "Backend Engineer", "Acme")

	assert.False(t, e.Seen(p))
	e.Record(p)
	assert.True(t, e.Seen(p))
}
