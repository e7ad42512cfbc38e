package mapping

import "strings"

// NormalizeName trims name and collapses every whitespace run to one space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ComputeTrimmedName returns the tab label for a device named name, given the
// names of every device in the roster.
//
// When other devices share the first word of name, the longest word prefix
// common to all of them is removed so that only the distinguishing part is
// shown. Names that are unique by first word, names that are identical to the
// shared prefix and exact duplicates keep their full normalized form.
func ComputeTrimmedName(name string, allNames []string) string {
	normalized := NormalizeName(name)
	first := strings.ToLower(firstWord(normalized))

	group := []string{normalized}
	for _, other := range allNames {
		other = NormalizeName(other)
		if other != normalized && strings.ToLower(firstWord(other)) == first {
			group = append(group, other)
		}
	}
	if len(group) == 1 {
		return normalized
	}

	prefix := group[0]
	for _, other := range group[1:] {
		prefix = commonWordPrefix(prefix, other)
	}

	if strings.ToLower(strings.TrimSpace(prefix)) == strings.ToLower(normalized) {
		return normalized
	}
	if prefix != "" && strings.HasPrefix(normalized, prefix) {
		if rest := strings.TrimSpace(normalized[len(prefix):]); rest != "" {
			return rest
		}
	}
	return normalized
}

// TabLabels returns the label of every device name against the whole roster.
func TabLabels(names []string) []string {
	labels := make([]string, len(names))
	for i, name := range names {
		labels[i] = ComputeTrimmedName(name, names)
	}
	return labels
}

func firstWord(s string) string {
	word, _, _ := strings.Cut(s, " ")
	return word
}

// commonWordPrefix returns the leading words a and b share, compared without
// case. The words are returned as spelled in a.
func commonWordPrefix(a, b string) string {
	wa, wb := strings.Split(a, " "), strings.Split(b, " ")
	n := min(len(wa), len(wb))

	var common []string
	for i := 0; i < n; i++ {
		if strings.ToLower(wa[i]) != strings.ToLower(wb[i]) {
			break
		}
		common = append(common, wa[i])
	}
	return strings.Join(common, " ")
}
