package cache

import (
	"encoding/json"
	"fmt"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// Key builds the deterministic cache key for one source page. Filters
// are embedded as canonical JSON so the same filter set always maps to
// the same key.
func Key(prefix, source, query string, filters jobs.Filters, page, pageSize int) string {
	raw, err := json.Marshal(filters)
	if err != nil {
		raw = []byte("{}")
	}
	return fmt.Sprintf("%s%s_%s_%s_%d_%d", prefix, source, query, raw, page, pageSize)
}
