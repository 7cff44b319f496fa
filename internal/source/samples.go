package source

import (
	"strings"
	"time"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// StaticSamples is a SampleProvider backed by a small fixed posting set.
// It exists so the UI has something to show when every live source is
// down; sample postings never enter the cache.
type StaticSamples struct{}

// Name returns the provider's source label.
func (StaticSamples) Name() string {
	return "Sample Data"
}

// Sample returns the fixed postings whose title, company, or skills
// contain the query, or all of them for an empty query. Filters are left
// to the caller, which runs samples through the same filter pipeline as
// live postings.
func (StaticSamples) Sample(query string, _ jobs.Filters) []jobs.Posting {
	now := time.Now()
	postings := samplePostings(now)

	if query == "" {
		return postings
	}

	term := strings.ToLower(query)
	var matched []jobs.Posting
	for _, p := range postings {
		haystack := strings.ToLower(p.Title + " " + p.Company + " " + strings.Join(p.Skills, " "))
		if strings.Contains(haystack, term) {
			matched = append(matched, p)
		}
	}
	return matched
}

func samplePostings(fetchedAt time.Time) []jobs.Posting {
	mk := func(id, title, company, location, jobType, posted, description string) jobs.Posting {
		return jobs.Posting{
			ID:          "sample-" + id,
			Title:       title,
			Company:     company,
			Location:    location,
			Type:        jobType,
			Salary:      EstimateSalary(title),
			Team:        InferTeam(title),
			PostedDate:  posted,
			Description: description,
			Skills:      ExtractSkills(title + " " + description),
			Source:      "Sample Data",
			SourceID:    id,
			FetchedAt:   fetchedAt,
		}
	}

	return []jobs.Posting{
		mk("1", "Senior React Developer", "Horizon Labs", "Remote", "Full-time",
			"Today", "Build and maintain React applications with TypeScript and GraphQL."),
		mk("2", "Backend Engineer", "Datawave", "Remote", "Full-time",
			"Yesterday", "Design REST API services in Python with PostgreSQL and Docker."),
		mk("3", "Product Designer", "Nimbus Studio", "Remote", "Contract",
			"2 days ago", "Lead product design across web and mobile, working in Figma."),
		mk("4", "DevOps Engineer", "Cloudforge", "Remote", "Full-time",
			"3 days ago", "Own Kubernetes infrastructure on AWS, CI/CD pipelines included."),
		mk("5", "Data Scientist", "Signalpeak", "Remote", "Full-time",
			"1 weeks ago", "Machine learning models for analytics over big data pipelines."),
		mk("6", "Junior Frontend Developer", "Brightside", "Remote", "Part-time",
			"2 weeks ago", "HTML, CSS and JavaScript work on a Vue.js design system."),
	}
}
