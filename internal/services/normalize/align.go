package normalize

import (
	"sort"

	"RiskPulse/internal/domain/models"
)

// Column is one scaled input series ready for alignment.
type Column struct {
	Field  string
	Values map[string]float64
	Soft   bool
}

// Align intersects the dates of all hard columns and attaches to each
// surviving date the latest soft value at or before it. A date with no
// earlier soft value is dropped. Output is ascending by date.
func Align(cols []Column) []models.AlignedRecord {
	var hard, soft []Column
	for _, c := range cols {
		if c.Soft {
			soft = append(soft, c)
		} else {
			hard = append(hard, c)
		}
	}
	if len(hard) == 0 {
		return nil
	}

	// iterate the smallest hard column, probe the rest
	sort.SliceStable(hard, func(i, j int) bool { return len(hard[i].Values) < len(hard[j].Values) })
	dates := make([]string, 0, len(hard[0].Values))
	for d := range hard[0].Values {
		shared := true
		for _, c := range hard[1:] {
			if _, ok := c.Values[d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	softDates := make([][]string, len(soft))
	for i, c := range soft {
		softDates[i] = sortedKeys(c.Values)
	}

	out := make([]models.AlignedRecord, 0, len(dates))
	for _, d := range dates {
		inputs := make(models.Fields, len(cols))
		for _, c := range hard {
			inputs[c.Field] = c.Values[d]
		}
		complete := true
		for i, c := range soft {
			anchor, ok := latestAtOrBefore(softDates[i], d)
			if !ok {
				complete = false
				break
			}
			inputs[c.Field] = c.Values[anchor]
		}
		if complete {
			out = append(out, models.AlignedRecord{Date: d, Inputs: inputs})
		}
	}
	return out
}

// latestAtOrBefore finds the greatest element of sorted that is <= target.
func latestAtOrBefore(sorted []string, target string) (string, bool) {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i] > target })
	if idx == 0 {
		return "", false
	}
	return sorted[idx-1], true
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
