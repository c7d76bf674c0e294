// -----------------------------------------------------------------------
// Deduplicator - Merge candidates from independent producers, keeping the
// highest-priority detection of each distinct table
// -----------------------------------------------------------------------

package detect

import (
	"sort"

	"github.com/ternarybob/tabulae/internal/models"
)

// Deduplicate sorts candidates by method priority (native > grid-analysis >
// regex) and keeps the first occurrence of each (headers, first row)
// signature. When the same physical table is detected by two strategies the
// higher-priority version wins; order is stable within equal priority.
func Deduplicate(candidates []models.TableCandidate) []models.TableCandidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]models.TableCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.MethodPriority(sorted[i].ExtractionMethod) < models.MethodPriority(sorted[j].ExtractionMethod)
	})

	seen := make(map[string]bool, len(sorted))
	unique := make([]models.TableCandidate, 0, len(sorted))
	for _, candidate := range sorted {
		signature := candidate.Signature()
		if seen[signature] {
			continue
		}
		seen[signature] = true
		unique = append(unique, candidate)
	}

	return unique
}
