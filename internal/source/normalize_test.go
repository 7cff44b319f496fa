package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSkills(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty text falls back to generic tag",
			text: "",
			want: []string{"Remote Work"},
		},
		{
			name: "no vocabulary match falls back to generic tag",
			text: "shepherd wanted for alpine pastures",
			want: []string{"Remote Work"},
		},
		{
			name: "case-insensitive match",
			text: "we use REACT and typescript daily",
			want: []string{"React", "TypeScript"},
		},
		{
			name: "capped at five",
			text: "JavaScript Python React Node.js TypeScript Angular Vue.js",
			want: []string{"JavaScript", "Python", "React", "Node.js", "TypeScript"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSkills(tt.text))
		})
	}
}

func TestInferTeam(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "empty title", title: "", want: "Engineering"},
		{name: "frontend wins before backend", title: "Frontend Developer", want: "Frontend"},
		{name: "react maps to frontend", title: "React Engineer", want: "Frontend"},
		{name: "backend", title: "Backend Engineer", want: "Backend"},
		{name: "designer", title: "Product Designer", want: "UX/UI"},
		{name: "devops", title: "DevOps Specialist", want: "DevOps"},
		{name: "security", title: "InfoSec Analyst", want: "Security"},
		{name: "no match defaults to engineering", title: "Office Coordinator", want: "Engineering"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTeam(tt.title))
		})
	}
}

func TestEstimateSalary(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  int
	}{
		{name: "empty title", title: "", want: 100},
		{name: "plain engineer", title: "Software Engineer", want: 100},
		{name: "manager base", title: "Engineering Manager", want: 130},
		{name: "architect base includes seniority bump", title: "Solutions Architect", want: 160},
		{name: "senior devops", title: "Senior DevOps Engineer", want: 145},
		{name: "junior data", title: "Junior Data Analyst", want: 80},
		{name: "mobile mid", title: "Mobile Developer", want: 120},
		{name: "design", title: "UX Researcher", want: 115},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateSalary(tt.title))
		})
	}
}
