package source

import "strings"

// skillVocabulary is the fixed vocabulary matched case-insensitively
// against title+description. Matches are capped at maxSkills.
var skillVocabulary = []string{
	"JavaScript", "Python", "React", "Node.js", "TypeScript", "Angular", "Vue.js", "Java", "C#", ".NET",
	"MongoDB", "PostgreSQL", "MySQL", "AWS", "Azure", "Docker", "Kubernetes", "CI/CD", "DevOps",
	"Git", "Linux", "Figma", "Sketch", "Adobe XD", "UI/UX", "CSS", "HTML", "REST API", "GraphQL",
}

const (
	maxSkills    = 5
	genericSkill = "Remote Work"
	defaultTeam  = "Engineering"
)

// teamRules is an ordered first-match keyword table; the first team whose
// keyword appears in the title wins.
var teamRules = []struct {
	team     string
	keywords []string
}{
	{"Frontend", []string{"Frontend", "Front-end", "Front End", "UI", "React", "Angular", "Vue", "JavaScript"}},
	{"UX/UI", []string{"UX", "UI", "User Experience", "User Interface", "Designer", "Design"}},
	{"Backend", []string{"Backend", "Back-end", "Back End", "API", "Server", "Java", "Python", "Ruby", "PHP", "Node"}},
	{"Full Stack", []string{"Full Stack", "Fullstack", "Full-stack"}},
	{"DevOps", []string{"DevOps", "SRE", "Infrastructure", "Cloud", "AWS", "Azure", "GCP", "Kubernetes", "Docker"}},
	{"Mobile", []string{"Mobile", "iOS", "Android", "React Native", "Flutter", "Swift", "Kotlin"}},
	{"Data", []string{"Data", "Analytics", "Machine Learning", "AI", "ML", "Data Science", "Big Data"}},
	{"Product", []string{"Product", "PM", "Product Manager", "Product Owner"}},
	{"QA", []string{"QA", "Test", "Testing", "Quality"}},
	{"Security", []string{"Security", "Cyber", "InfoSec"}},
}

// ExtractSkills scans text for known skills, case-insensitively, returning
// at most maxSkills matches in vocabulary order. Falls back to a single
// generic tag when nothing matches.
func ExtractSkills(text string) []string {
	if text == "" {
		return []string{genericSkill}
	}

	lower := strings.ToLower(text)

	var found []string
	for _, skill := range skillVocabulary {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
			if len(found) == maxSkills {
				break
			}
		}
	}

	if len(found) == 0 {
		return []string{genericSkill}
	}
	return found
}

// InferTeam maps a job title to a team tag via the first matching keyword
// rule. Keyword matching is case-sensitive; upstream titles capitalize
// role words.
func InferTeam(title string) string {
	if title == "" {
		return defaultTeam
	}

	for _, rule := range teamRules {
		for _, kw := range rule.keywords {
			if strings.Contains(title, kw) {
				return rule.team
			}
		}
	}
	return defaultTeam
}

// EstimateSalary derives an annualized salary estimate (in thousands) from
// the job title: a role-family base adjusted by seniority keywords.
func EstimateSalary(title string) int {
	if title == "" {
		return 100
	}

	var base int
	switch {
	case strings.Contains(title, "Manager") || strings.Contains(title, "Director"):
		base = 130
	case strings.Contains(title, "Architect") || strings.Contains(title, "Principal"):
		base = 140
	case strings.Contains(title, "DevOps") || strings.Contains(title, "SRE"):
		base = 125
	case strings.Contains(title, "Data") || strings.Contains(title, "Machine Learning"):
		base = 110
	case strings.Contains(title, "UI") || strings.Contains(title, "UX") || strings.Contains(title, "Design"):
		base = 115
	case strings.Contains(title, "Mobile") || strings.Contains(title, "iOS") || strings.Contains(title, "Android"):
		base = 120
	default:
		base = 100
	}

	switch {
	case containsAny(title, "Senior", "Sr", "Lead", "Principal", "Staff", "Architect"):
		return base + 20
	case containsAny(title, "Junior", "Jr", "Entry", "Associate", "Intern"):
		return base - 30
	default:
		return base
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
