package models

import "fmt"

// Grade is one of twelve ordered letter grades. Lower ordinal means a better grade.
type Grade int

const (
	GradeUnknown Grade = iota
	GradeAPlus
	GradeA
	GradeAMinus
	GradeBPlus
	GradeB
	GradeBMinus
	GradeCPlus
	GradeC
	GradeCMinus
	GradeDPlus
	GradeD
	GradeF
)

var gradeNames = [...]string{
	GradeUnknown: "?",
	GradeAPlus:   "A+",
	GradeA:       "A",
	GradeAMinus:  "A-",
	GradeBPlus:   "B+",
	GradeB:       "B",
	GradeBMinus:  "B-",
	GradeCPlus:   "C+",
	GradeC:       "C",
	GradeCMinus:  "C-",
	GradeDPlus:   "D+",
	GradeD:       "D",
	GradeF:       "F",
}

// AllGrades lists the twelve grades best first
func AllGrades() []Grade {
	return []Grade{
		GradeAPlus, GradeA, GradeAMinus,
		GradeBPlus, GradeB, GradeBMinus,
		GradeCPlus, GradeC, GradeCMinus,
		GradeDPlus, GradeD, GradeF,
	}
}

// Rank returns the sort position of the grade (1 = A+)
func (g Grade) Rank() int {
	return int(g)
}

// Valid reports whether g is one of the twelve grades
func (g Grade) Valid() bool {
	return g >= GradeAPlus && g <= GradeF
}

func (g Grade) String() string {
	if g < 0 || int(g) >= len(gradeNames) {
		return gradeNames[GradeUnknown]
	}
	return gradeNames[g]
}

// MarshalText encodes the grade as its letter form ("A+", "B-", ...)
func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("marshal grade: invalid ordinal %d", int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText decodes the letter form
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrade converts a letter grade back to its ordinal
func ParseGrade(s string) (Grade, error) {
	for _, g := range AllGrades() {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	return GradeUnknown, fmt.Errorf("unknown grade %q", s)
}
