package school

import "math"

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeOf maps a score to its letter grade. Each boundary belongs to the
// higher grade: 90 is an A, 89.999 a B. Any score below 60, including NaN,
// is an F.
func GradeOf(score float64) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// AttendancePercentage returns present/total as a percentage rounded to one
// decimal place. It reports false when total is zero: no records is not the
// same as 0% attendance.
func AttendancePercentage(present, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return math.Round(float64(present)/float64(total)*1000) / 10, true
}
