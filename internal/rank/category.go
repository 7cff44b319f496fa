package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

const (
	// DefaultMatchThreshold is the minimum score for a posting to count
	// toward a category.
	DefaultMatchThreshold = 5

	primaryWeight   = 10
	secondaryWeight = 2
	excludePenalty  = 5

	maxCategories = 8
)

// Rule defines one category: primary keywords strongly identify it,
// secondary keywords add weaker evidence, exclude keywords subtract.
type Rule struct {
	ID        string
	Label     string
	Primary   []string
	Secondary []string
	Exclude   []string
}

// DefaultRules returns the built-in category rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        "ux-designer",
			Label:     "UX Designer",
			Primary:   []string{"ux designer", "user experience designer", "ux/ui"},
			Secondary: []string{"user research", "wireframe", "usability", "figma", "prototyping"},
			Exclude:   []string{"developer", "engineer"},
		},
		{
			ID:        "ui-designer",
			Label:     "UI Designer",
			Primary:   []string{"ui designer", "user interface designer", "visual designer"},
			Secondary: []string{"figma", "sketch", "design system", "typography", "visual design"},
			Exclude:   []string{"developer", "engineer"},
		},
		{
			ID:        "product-designer",
			Label:     "Product Designer",
			Primary:   []string{"product designer", "product design"},
			Secondary: []string{"figma", "user research", "design system", "prototyping"},
			Exclude:   []string{"developer", "engineer"},
		},
		{
			ID:        "frontend-developer",
			Label:     "Frontend Developer",
			Primary:   []string{"frontend developer", "front-end developer", "frontend engineer", "front end"},
			Secondary: []string{"react", "vue", "angular", "javascript", "typescript", "css"},
			Exclude:   []string{"backend", "full stack", "fullstack"},
		},
		{
			ID:        "backend-developer",
			Label:     "Backend Developer",
			Primary:   []string{"backend developer", "back-end developer", "backend engineer", "back end"},
			Secondary: []string{"node", "python", "java", "api", "database", "sql", "go"},
			Exclude:   []string{"frontend", "full stack", "fullstack"},
		},
		{
			ID:        "fullstack-developer",
			Label:     "Full Stack Developer",
			Primary:   []string{"full stack", "fullstack", "full-stack"},
			Secondary: []string{"react", "node", "javascript", "frontend", "backend"},
			Exclude:   []string{},
		},
		{
			ID:        "data-scientist",
			Label:     "Data Scientist",
			Primary:   []string{"data scientist", "data science", "machine learning engineer"},
			Secondary: []string{"python", "machine learning", "tensorflow", "pandas", "statistics", "ai"},
			Exclude:   []string{},
		},
		{
			ID:        "devops-engineer",
			Label:     "DevOps Engineer",
			Primary:   []string{"devops", "site reliability", "sre", "platform engineer"},
			Secondary: []string{"kubernetes", "docker", "aws", "ci/cd", "terraform", "infrastructure"},
			Exclude:   []string{},
		},
		{
			ID:        "mobile-developer",
			Label:     "Mobile Developer",
			Primary:   []string{"mobile developer", "ios developer", "android developer", "mobile engineer"},
			Secondary: []string{"swift", "kotlin", "react native", "flutter", "ios", "android"},
			Exclude:   []string{},
		},
		{
			ID:        "graphic-designer",
			Label:     "Graphic Designer",
			Primary:   []string{"graphic designer", "graphic design", "brand designer"},
			Secondary: []string{"photoshop", "illustrator", "branding", "adobe", "typography"},
			Exclude:   []string{"ux", "ui", "product"},
		},
		{
			ID:        "marketing-specialist",
			Label:     "Marketing Specialist",
			Primary:   []string{"marketing", "growth", "seo specialist", "content marketing"},
			Secondary: []string{"seo", "social media", "campaigns", "analytics", "content"},
			Exclude:   []string{"engineer", "developer"},
		},
		{
			ID:        "project-manager",
			Label:     "Project Manager",
			Primary:   []string{"project manager", "product manager", "program manager", "scrum master"},
			Secondary: []string{"agile", "scrum", "roadmap", "stakeholder", "jira"},
			Exclude:   []string{},
		},
	}
}

// Category is a rule that matched at least one posting, with its count.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DisplayLabel renders the category the way the UI lists it.
func (c Category) DisplayLabel() string {
	return fmt.Sprintf("%s (%d)", c.Label, c.Count)
}

// Engine scores postings against category rules.
type Engine struct {
	rules     []Rule
	threshold int
}

// NewEngine creates a category engine. A non-positive threshold falls
// back to the default; nil rules fall back to DefaultRules.
func NewEngine(rules []Rule, threshold int) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Engine{rules: rules, threshold: threshold}
}

// Score computes how strongly a posting matches a rule. A primary
// keyword hit in the title or description scores once no matter how
// many primary keywords match, each secondary keyword in the title,
// description, or skills adds a little, and an exclude keyword hit
// subtracts once.
func (e *Engine) Score(p jobs.Posting, rule Rule) int {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)
	skills := strings.ToLower(strings.Join(p.Skills, " "))

	score := 0
	for _, kw := range rule.Primary {
		if strings.Contains(title, kw) || strings.Contains(desc, kw) {
			score += primaryWeight
			break
		}
	}
	for _, kw := range rule.Secondary {
		if strings.Contains(title, kw) || strings.Contains(desc, kw) || strings.Contains(skills, kw) {
			score += secondaryWeight
		}
	}
	for _, kw := range rule.Exclude {
		if strings.Contains(title, kw) || strings.Contains(desc, kw) {
			score -= excludePenalty
			break
		}
	}
	return score
}

// Matches reports whether the posting meets the match threshold for the
// rule.
func (e *Engine) Matches(p jobs.Posting, rule Rule) bool {
	return e.Score(p, rule) >= e.threshold
}

// Categorize counts matching postings per rule and returns the most
// populous categories, count descending, capped at eight. Ties keep
// rule-definition order.
func (e *Engine) Categorize(postings []jobs.Posting) []Category {
	counts := make([]Category, 0, len(e.rules))
	for _, rule := range e.rules {
		n := 0
		for _, p := range postings {
			if e.Matches(p, rule) {
				n++
			}
		}
		if n > 0 {
			counts = append(counts, Category{ID: rule.ID, Label: rule.Label, Count: n})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > maxCategories {
		counts = counts[:maxCategories]
	}
	return counts
}

// MatchesCategory reports whether the posting belongs to the category
// with the given rule ID. Unknown IDs match nothing.
func (e *Engine) MatchesCategory(p jobs.Posting, categoryID string) bool {
	for _, rule := range e.rules {
		if rule.ID == categoryID {
			return e.Matches(p, rule)
		}
	}
	return false
}
