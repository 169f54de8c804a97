package grading

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Names of the grading scales every gradebook starts with.
const (
	MappingLetterGrades     = "Letter Grades"
	MappingLetterPlusMinus  = "Letter Grades with +/-"
	MappingPassNotPass      = "Pass / Not Pass"
	DefaultGradeMappingName = MappingLetterPlusMinus
)

// GradeMapping converts percentages into letters using descending cutoffs.
type GradeMapping struct {
	Name    string
	cutoffs []models.LetterCutoff
}

// NewGradeMapping validates cutoffs and builds a mapping. Cutoffs must be strictly
// descending, carry unique letters and end with a zero minimum.
func NewGradeMapping(name string, cutoffs []models.LetterCutoff) (GradeMapping, error) {
	if len(cutoffs) == 0 {
		return GradeMapping{}, violation("grade mapping %q has no cutoffs", name)
	}
	seen := make(map[string]struct{}, len(cutoffs))
	for i, c := range cutoffs {
		letter := strings.TrimSpace(c.Letter)
		if letter == "" {
			return GradeMapping{}, violation("grade mapping %q has an empty letter", name)
		}
		key := strings.ToLower(letter)
		if _, ok := seen[key]; ok {
			return GradeMapping{}, violation("grade mapping %q repeats letter %q", name, letter)
		}
		seen[key] = struct{}{}
		if i > 0 && c.MinPercent >= cutoffs[i-1].MinPercent {
			return GradeMapping{}, violation("grade mapping %q cutoffs are not strictly descending at %q", name, letter)
		}
	}
	if last := cutoffs[len(cutoffs)-1]; last.MinPercent != 0 {
		return GradeMapping{}, violation("grade mapping %q must end with a zero minimum, got %v", name, last.MinPercent)
	}
	copied := make([]models.LetterCutoff, len(cutoffs))
	copy(copied, cutoffs)
	return GradeMapping{Name: name, cutoffs: copied}, nil
}

// MappingFromRecord builds a mapping from its persisted form.
func MappingFromRecord(record models.GradeMappingRecord) (GradeMapping, error) {
	return NewGradeMapping(record.Name, record.Cutoffs)
}

// Cutoffs returns a copy of the ordered cutoffs.
func (m GradeMapping) Cutoffs() []models.LetterCutoff {
	out := make([]models.LetterCutoff, len(m.cutoffs))
	copy(out, m.cutoffs)
	return out
}

// Letter returns the letter for pct. A nil percentage means no grade yet.
func (m GradeMapping) Letter(pct *float64) (string, bool) {
	if pct == nil || len(m.cutoffs) == 0 {
		return "", false
	}
	for _, c := range m.cutoffs {
		if *pct >= c.MinPercent {
			return c.Letter, true
		}
	}
	return m.cutoffs[len(m.cutoffs)-1].Letter, true
}

// MapPercentageToLetter is the package level form of GradeMapping.Letter.
func MapPercentageToLetter(mapping GradeMapping, pct *float64) (string, bool) {
	return mapping.Letter(pct)
}

// PercentFor returns the minimum percentage of letter, matched case-insensitively.
func (m GradeMapping) PercentFor(letter string) (float64, bool) {
	idx := m.index(letter)
	if idx < 0 {
		return 0, false
	}
	return m.cutoffs[idx].MinPercent, true
}

// Canonical returns the mapping's spelling of letter.
func (m GradeMapping) Canonical(letter string) (string, bool) {
	idx := m.index(letter)
	if idx < 0 {
		return "", false
	}
	return m.cutoffs[idx].Letter, true
}

// Compare ranks two letters by their position in the mapping, falling back to
// CompareLetterGrades for letters the mapping does not know.
func (m GradeMapping) Compare(a, b string) int {
	ia, ib := m.index(a), m.index(b)
	if ia < 0 || ib < 0 {
		return CompareLetterGrades(a, b)
	}
	switch {
	case ia < ib:
		return 1
	case ia > ib:
		return -1
	}
	return 0
}

func (m GradeMapping) index(letter string) int {
	key := strings.ToLower(strings.TrimSpace(letter))
	for i, c := range m.cutoffs {
		if strings.ToLower(c.Letter) == key {
			return i
		}
	}
	return -1
}

// CompareLetterGrades orders letter grades. It returns a positive number when a ranks
// above b. Primaries A through F compare case-insensitively with A highest; equal
// primaries compare by modifier, "+" above none above "-". Anything else, such as "NP",
// ranks below every letter and ties with other unknown grades; an empty grade ranks
// lowest.
func CompareLetterGrades(a, b string) int {
	pa, ma := splitLetter(a)
	pb, mb := splitLetter(b)
	ra, rb := primaryRank(pa), primaryRank(pb)
	if ra != rb {
		return ra - rb
	}
	if ra <= rankUnknown {
		return 0
	}
	return modifierRank(ma) - modifierRank(mb)
}

const (
	rankEmpty   = 0
	rankUnknown = 1
)

func primaryRank(primary string) int {
	switch {
	case primary == "":
		return rankEmpty
	case len(primary) == 1 && primary[0] >= 'a' && primary[0] <= 'f':
		return rankUnknown + 1 + int('f'-primary[0])
	}
	return rankUnknown
}

func splitLetter(grade string) (string, string) {
	grade = strings.ToLower(strings.TrimSpace(grade))
	if grade == "" {
		return "", ""
	}
	last := grade[len(grade)-1]
	if len(grade) > 1 && (last == '+' || last == '-') {
		return grade[:len(grade)-1], string(last)
	}
	return grade, ""
}

func modifierRank(modifier string) int {
	switch modifier {
	case "+":
		return 1
	case "-":
		return -1
	}
	return 0
}

// StandardMappings returns the grading scales seeded into every new gradebook.
func StandardMappings() []models.GradeMappingRecord {
	return []models.GradeMappingRecord{
		{
			Name: MappingLetterGrades,
			Cutoffs: []models.LetterCutoff{
				{Letter: "A", MinPercent: 90},
				{Letter: "B", MinPercent: 80},
				{Letter: "C", MinPercent: 70},
				{Letter: "D", MinPercent: 60},
				{Letter: "F", MinPercent: 0},
			},
		},
		{
			Name: MappingLetterPlusMinus,
			Cutoffs: []models.LetterCutoff{
				{Letter: "A+", MinPercent: 97},
				{Letter: "A", MinPercent: 93},
				{Letter: "A-", MinPercent: 90},
				{Letter: "B+", MinPercent: 87},
				{Letter: "B", MinPercent: 83},
				{Letter: "B-", MinPercent: 80},
				{Letter: "C+", MinPercent: 77},
				{Letter: "C", MinPercent: 73},
				{Letter: "C-", MinPercent: 70},
				{Letter: "D+", MinPercent: 67},
				{Letter: "D", MinPercent: 63},
				{Letter: "D-", MinPercent: 60},
				{Letter: "F", MinPercent: 0},
			},
		},
		{
			Name: MappingPassNotPass,
			Cutoffs: []models.LetterCutoff{
				{Letter: "P", MinPercent: 75},
				{Letter: "NP", MinPercent: 0},
			},
		},
	}
}

func (m GradeMapping) String() string {
	parts := make([]string, len(m.cutoffs))
	for i, c := range m.cutoffs {
		parts[i] = fmt.Sprintf("%s>=%v", c.Letter, c.MinPercent)
	}
	return m.Name + "[" + strings.Join(parts, " ") + "]"
}
