package dokan

import "strings"

// DOS wildcard characters produced by the Windows command processor.
const (
	dosStar = '<' // any run of characters up to the final '.'
	dosQM   = '>' // any single character, or nothing at a '.' or the end
	dosDot  = '"' // a '.' or nothing at the end of the name
)

// MatchPattern reports whether name matches expression using the same
// wildcard rules the driver applies to FindFilesWithPattern:
//
//	'*'  any sequence of characters, including none
//	'?'  exactly one character
//	'<'  any sequence up to, but not past, the last '.' in name
//	'>'  one character, or nothing when at a '.' or the end of name
//	'"'  a '.', or nothing at the end of name
//
// An empty expression matches only an empty name.
func MatchPattern(expression, name string, ignoreCase bool) bool {
	if ignoreCase {
		expression = strings.ToUpper(expression)
		name = strings.ToUpper(name)
	}
	expr := []rune(expression)
	n := []rune(name)

	lastDot := -1
	for i, r := range n {
		if r == '.' {
			lastDot = i
		}
	}

	m := &matcher{expr: expr, name: n, lastDot: lastDot, memo: make(map[[2]int]bool)}
	return m.match(0, 0)
}

type matcher struct {
	expr    []rune
	name    []rune
	lastDot int
	memo    map[[2]int]bool
}

func (m *matcher) match(ei, ni int) bool {
	key := [2]int{ei, ni}
	if v, ok := m.memo[key]; ok {
		return v
	}
	v := m.step(ei, ni)
	m.memo[key] = v
	return v
}

func (m *matcher) step(ei, ni int) bool {
	if ei == len(m.expr) {
		return ni == len(m.name)
	}

	switch c := m.expr[ei]; c {
	case '*':
		for k := ni; k <= len(m.name); k++ {
			if m.match(ei+1, k) {
				return true
			}
		}
		return false

	case dosStar:
		// May consume characters but never the last '.' of the name.
		limit := len(m.name)
		if m.lastDot >= ni {
			limit = m.lastDot
		}
		for k := ni; k <= limit; k++ {
			if m.match(ei+1, k) {
				return true
			}
		}
		return false

	case '?':
		return ni < len(m.name) && m.match(ei+1, ni+1)

	case dosQM:
		if ni == len(m.name) || m.name[ni] == '.' {
			return m.match(ei+1, ni)
		}
		return m.match(ei+1, ni+1)

	case dosDot:
		if ni == len(m.name) {
			return m.match(ei+1, ni)
		}
		return m.name[ni] == '.' && m.match(ei+1, ni+1)

	default:
		return ni < len(m.name) && m.name[ni] == c && m.match(ei+1, ni+1)
	}
}
