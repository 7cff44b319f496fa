package aggregate

import (
	"sort"
	"strings"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// matchesFilters reports whether the posting passes every set filter.
// The literal location filter "remote" is ignored, since every
// aggregated posting is remote; anything more specific, like
// "Remote - Germany", still has to match the posting's location.
func matchesFilters(p jobs.Posting, f jobs.Filters) bool {
	if f.JobType != "" && !strings.EqualFold(p.Type, f.JobType) {
		return false
	}
	if f.SalaryMin > 0 && p.Salary < f.SalaryMin {
		return false
	}
	if f.SalaryMax > 0 && p.Salary > f.SalaryMax {
		return false
	}
	if f.Location != "" && !strings.EqualFold(f.Location, "remote") {
		if !strings.Contains(strings.ToLower(p.Location), strings.ToLower(f.Location)) {
			return false
		}
	}
	if len(f.Skills) > 0 && !hasAnySkill(p.Skills, f.Skills) {
		return false
	}
	if f.Company != "" && !strings.Contains(strings.ToLower(p.Company), strings.ToLower(f.Company)) {
		return false
	}
	if f.MaxAgeDays > 0 && jobs.ParseRelativeDays(p.PostedDate) > f.MaxAgeDays {
		return false
	}
	return true
}

func hasAnySkill(have, want []string) bool {
	for _, w := range want {
		lw := strings.ToLower(w)
		for _, h := range have {
			if strings.Contains(strings.ToLower(h), lw) {
				return true
			}
		}
	}
	return false
}

// applyFilters keeps the postings passing every set filter, in order.
func applyFilters(postings []jobs.Posting, f jobs.Filters) []jobs.Posting {
	out := make([]jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if matchesFilters(p, f) {
			out = append(out, p)
		}
	}
	return out
}

// sortPostings orders postings by the given sort key. Date sorts newest
// first; salary highest first; company and title alphabetically;
// relevance by source priority then date. Ties keep input order.
func sortPostings(postings []jobs.Posting, key string, priorityRank map[string]int) {
	switch key {
	case jobs.SortDate:
		sort.SliceStable(postings, func(i, j int) bool {
			return jobs.ParseRelativeDays(postings[i].PostedDate) < jobs.ParseRelativeDays(postings[j].PostedDate)
		})
	case jobs.SortSalary:
		sort.SliceStable(postings, func(i, j int) bool {
			return postings[i].Salary > postings[j].Salary
		})
	case jobs.SortCompany:
		sort.SliceStable(postings, func(i, j int) bool {
			return strings.ToLower(postings[i].Company) < strings.ToLower(postings[j].Company)
		})
	case jobs.SortTitle:
		sort.SliceStable(postings, func(i, j int) bool {
			return strings.ToLower(postings[i].Title) < strings.ToLower(postings[j].Title)
		})
	case jobs.SortRelevance:
		sort.SliceStable(postings, func(i, j int) bool {
			ri := sourceRank(priorityRank, postings[i].Source)
			rj := sourceRank(priorityRank, postings[j].Source)
			if ri != rj {
				return ri < rj
			}
			return jobs.ParseRelativeDays(postings[i].PostedDate) < jobs.ParseRelativeDays(postings[j].PostedDate)
		})
	}
}

func sourceRank(priorityRank map[string]int, source string) int {
	if r, ok := priorityRank[source]; ok {
		return r
	}
	return len(priorityRank)
}
