package manifest

import "strings"

type indentKey struct {
	tab    bool
	amount int
}

type indentStat struct {
	used   int
	weight int
}

// DetectIndent returns the indentation unit most likely used by text, or ""
// when the text has no indented lines. The most frequent change in
// indentation between consecutive lines wins; ties go to the change that
// is more often followed by lines at the same depth.
func DetectIndent(text string) string {
	order, stats := indentStats(text, true)
	if len(order) == 0 {
		order, stats = indentStats(text, false)
	}

	var best indentKey
	found := false
	maxUsed, maxWeight := 0, 0
	for _, k := range order {
		s := stats[k]
		if s.used > maxUsed || (s.used == maxUsed && s.weight > maxWeight) {
			maxUsed, maxWeight = s.used, s.weight
			best = k
			found = true
		}
	}
	if !found || best.amount == 0 {
		return ""
	}
	if best.tab {
		return strings.Repeat("\t", best.amount)
	}
	return strings.Repeat(" ", best.amount)
}

func indentStats(text string, ignoreSingleSpaces bool) ([]indentKey, map[indentKey]*indentStat) {
	var order []indentKey
	stats := make(map[indentKey]*indentStat)

	prevSize := 0
	prevType := 0 // 0 none, 1 space, 2 tab
	var key indentKey
	haveKey := false

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		size, kind := leadingIndent(line)
		if size == 0 {
			prevSize = 0
			prevType = 0
			continue
		}
		if ignoreSingleSpaces && kind == 1 && size == 1 {
			continue
		}
		if kind != prevType {
			prevSize = 0
		}
		prevType = kind

		weight := 0
		diff := size - prevSize
		prevSize = size
		if diff == 0 {
			weight++
		} else {
			if diff < 0 {
				diff = -diff
			}
			key = indentKey{tab: kind == 2, amount: diff}
			haveKey = true
		}
		if !haveKey {
			continue
		}

		s, ok := stats[key]
		if !ok {
			stats[key] = &indentStat{used: 1}
			order = append(order, key)
			continue
		}
		s.used++
		s.weight += weight
	}
	return order, stats
}

// leadingIndent measures a run of spaces or a run of tabs at the start of line.
// kind is 1 for spaces and 2 for tabs.
func leadingIndent(line string) (size, kind int) {
	switch line[0] {
	case ' ':
		kind = 1
	case '\t':
		kind = 2
	default:
		return 0, 0
	}
	for size < len(line) && line[size] == line[0] {
		size++
	}
	return size, kind
}
