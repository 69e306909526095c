package suggest

// adjacent lists the letters physically next to each key on a QWERTY
// keyboard.
var adjacent = map[rune][]rune{
	'q': []rune("wsa"),
	'w': []rune("qeasd"),
	'e': []rune("wrsdf"),
	'r': []rune("etdfg"),
	't': []rune("ryfgh"),
	'y': []rune("tghju"),
	'u': []rune("yihjk"),
	'i': []rune("uojkl"),
	'o': []rune("ipkl"),
	'p': []rune("ol"),
	'a': []rune("qwszx"),
	's': []rune("qweadzxc"),
	'd': []rune("wersfxcv"),
	'f': []rune("ertdgcvb"),
	'g': []rune("rtyfhvbn"),
	'h': []rune("tyugjbnm"),
	'j': []rune("yuihknm"),
	'k': []rune("uiojlm"),
	'l': []rune("iopk"),
	'z': []rune("asx"),
	'x': []rune("asdzc"),
	'c': []rune("sdfxv"),
	'v': []rune("dfgcb"),
	'b': []rune("fghvn"),
	'n': []rune("ghjbm"),
	'm': []rune("hjkn"),
}

// Adjacent returns the keys next to r, or nil for runes off the a-z grid.
func Adjacent(r rune) []rune {
	return adjacent[r]
}

// Variants returns every single-edit typo of term the index accounts for:
// each letter swapped for a neighbouring key, and each letter dropped.
// The result may contain duplicates.
func Variants(term string) []string {
	runes := []rune(term)
	out := make([]string, 0, len(runes)*5)
	buf := make([]rune, len(runes))
	for i, r := range runes {
		copy(buf, runes)
		for _, n := range adjacent[r] {
			buf[i] = n
			out = append(out, string(buf))
		}
		out = append(out, deleteAt(runes, i))
	}
	return out
}

// Deletions returns term with each single rune removed.
func Deletions(term string) []string {
	runes := []rune(term)
	out := make([]string, 0, len(runes))
	for i := range runes {
		out = append(out, deleteAt(runes, i))
	}
	return out
}

func deleteAt(runes []rune, i int) string {
	out := make([]rune, 0, len(runes)-1)
	out = append(out, runes[:i]...)
	out = append(out, runes[i+1:]...)
	return string(out)
}
