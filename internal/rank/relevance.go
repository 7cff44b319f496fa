package rank

import (
	"sort"
	"strings"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

const maxDescriptionScore = 25

// Relevance scores how well a posting matches a search term. Title
// matches dominate, then company, skills, description mentions, and
// location. Multi-word terms earn a bonus per word found in the title,
// company, or skills. Zero means the posting is unrelated to the term.
func Relevance(p jobs.Posting, term string) int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return 0
	}

	title := strings.ToLower(p.Title)
	company := strings.ToLower(p.Company)
	desc := strings.ToLower(p.Description)
	location := strings.ToLower(p.Location)

	score := 0

	switch {
	case strings.HasPrefix(title, term):
		score += 100
	case titleWordPrefix(title, term):
		score += 80
	case strings.Contains(title, term):
		score += 60
	}

	switch {
	case strings.HasPrefix(company, term):
		score += 50
	case strings.Contains(company, term):
		score += 30
	}

	skillScore := 0
	for _, skill := range p.Skills {
		s := strings.ToLower(skill)
		if skillTokenMatch(s, term) {
			skillScore = 40
			break
		}
		if strings.Contains(s, term) && skillScore < 20 {
			skillScore = 20
		}
	}
	score += skillScore

	if n := strings.Count(desc, term); n > 0 {
		d := n * 5
		if d > maxDescriptionScore {
			d = maxDescriptionScore
		}
		score += d
	}

	if strings.Contains(location, term) {
		score += 15
	}

	words := strings.Fields(term)
	if len(words) > 1 {
		skills := strings.ToLower(strings.Join(p.Skills, " "))
		for _, w := range words {
			if len(w) <= 2 {
				continue
			}
			if strings.Contains(title, w) || strings.Contains(company, w) || strings.Contains(skills, w) {
				score += 10
			}
		}
	}

	return score
}

// titleWordPrefix reports whether any word in the title after the first
// starts with the term.
func titleWordPrefix(title, term string) bool {
	for i, w := range strings.Fields(title) {
		if i == 0 {
			continue
		}
		if strings.HasPrefix(w, term) {
			return true
		}
	}
	return false
}

// skillTokenMatch reports whether any whitespace-separated token of the
// skill equals the term, so "react" matches the skill "React Native".
func skillTokenMatch(skill, term string) bool {
	for _, tok := range strings.Fields(skill) {
		if tok == term {
			return true
		}
	}
	return false
}

// RankSearch drops postings with zero relevance to the term and orders
// the rest by score descending, preserving input order among ties. An
// empty term returns the input unchanged.
func RankSearch(postings []jobs.Posting, term string) []jobs.Posting {
	if strings.TrimSpace(term) == "" {
		return postings
	}

	type scored struct {
		posting jobs.Posting
		score   int
	}
	matched := make([]scored, 0, len(postings))
	for _, p := range postings {
		if s := Relevance(p, term); s > 0 {
			matched = append(matched, scored{posting: p, score: s})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]jobs.Posting, len(matched))
	for i, m := range matched {
		out[i] = m.posting
	}
	return out
}
