package econogix

import "sort"

// ConsolidateExchange merges one side of a transaction definition into per-key
// summed amounts. Catalogs may legitimately repeat a currency or item entry;
// consolidation folds the duplicates instead of rejecting them.
//
// Pure function: no side effects, no failure mode. A nil or empty spec yields
// empty maps.
func ConsolidateExchange(spec *EconomyConfigExchange) (currencies map[string]int64, items map[string]int64) {
	currencies = make(map[string]int64)
	items = make(map[string]int64)
	if spec == nil {
		return currencies, items
	}

	for _, entry := range spec.Currencies {
		if entry == nil {
			continue
		}
		currencies[entry.Key] += entry.Amount
	}

	for _, entry := range spec.Items {
		if entry == nil {
			continue
		}
		items[entry.Key] += entry.Amount
	}

	return currencies, items
}

// sortedKeys gives consolidated maps a deterministic iteration order for
// verification, commit and reporting.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
