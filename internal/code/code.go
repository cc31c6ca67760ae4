package code

import (
	"regexp"
	"strings"

	"github.com/Annarex/test-app-sub000/internal/model"
)

// Length is the width of a full budget classification code.
const Length = 20

// Zero is the all-zero classification code carried by section total rows.
var Zero = strings.Repeat("0", Length)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Normalize strips whitespace from a classification code and left-pads a
// purely numeric code shorter than Length with zeros.
// "000 1 00 00000 00 0000 000" -> "00010000000000000000"
func Normalize(c string) string {
	c = strings.Join(strings.Fields(c), "")
	if len(c) < Length && digitsOnly.MatchString(c) {
		c = strings.Repeat("0", Length-len(c)) + c
	}
	return c
}

// IsZero reports whether a code normalizes to Zero.
func IsZero(c string) bool {
	return Normalize(c) == Zero
}

type grouping struct {
	re   *regexp.Regexp
	repl string
}

var groupings = map[model.Section]grouping{
	model.SectionIncome: {
		re:   regexp.MustCompile(`^(\d{3})(\d{1})(\d{2})(\d{5})(\d{2})(\d{4})(\d{3})$`),
		repl: "$1 $2 $3 $4 $5 $6 $7",
	},
	model.SectionExpense: {
		re:   regexp.MustCompile(`^(\d{3})(\d{4})(\d{10})(\d{3})$`),
		repl: "$1 $2 $3 $4",
	},
	model.SectionFinancing: {
		re:   regexp.MustCompile(`^(\d{3})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})(\d{4})(\d{3})$`),
		repl: "$1 $2 $3 $4 $5 $6 $7 $8",
	},
}

// Format renders a 20-character code with the digit grouping of its section
// as printed on the form. Anything else is returned unchanged.
func Format(c string, section model.Section) string {
	if len(c) != Length {
		return c
	}
	g, ok := groupings[section]
	if !ok {
		return c
	}
	return g.re.ReplaceAllString(c, g.repl)
}
