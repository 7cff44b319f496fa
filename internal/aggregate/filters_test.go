package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

func TestMatchesFiltersLocation(t *testing.T) {
	berlin := mkPosting("alpha", "a-1", "Backend Engineer", "Acme")
	berlin.Location = "Remote - Germany"
	worldwide := mkPosting("alpha", "a-2", "Data Scientist", "Initech")
	worldwide.Location = "Remote (Worldwide)"

	tests := []struct {
		name     string
		posting  jobs.Posting
		location string
		want     bool
	}{
		// The bare "remote" filter matches everything here.
		{"literal remote skipped", worldwide, "remote", true},
		{"literal remote skipped mixed case", berlin, "Remote", true},
		// A qualified remote location still has to match.
		{"qualified remote matches", berlin, "Remote - Germany", true},
		{"qualified remote rejects", worldwide, "Remote - Germany", false},
		{"plain substring", berlin, "germany", true},
		{"plain mismatch", berlin, "france", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesFilters(tt.posting, jobs.Filters{Location: tt.location})
			assert.Equal(t, tt.want, got)
		})
	}
}
