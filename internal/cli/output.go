package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/alvinp540/edutrack/school"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#5C7A84")
	colorError  = lipgloss.Color("#E74C3C")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

type created struct {
	ID string `json:"id" yaml:"id"`
}

type updated struct {
	Ref string `json:"updated" yaml:"updated"`
}

type deleted struct {
	Deleted int64 `json:"deleted" yaml:"deleted"`
}

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return printer{w: w, format: format}, nil
	}
	return printer{}, fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, formatTable, formatJSON, formatYAML)
}

func (p printer) print(v any) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return p.table(v)
}

func (p printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}

func (p printer) grid(headers []string, rows [][]string) {
	if len(rows) == 0 {
		p.line(mutedStyle, "no records")
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(p.w, t.Render())
}

func (p printer) table(v any) error {
	switch x := v.(type) {
	case created:
		p.line(titleStyle, "created %s", x.ID)
	case updated:
		p.line(titleStyle, "updated %s", x.Ref)
	case deleted:
		p.line(titleStyle, "deleted %d record(s)", x.Deleted)

	case school.Teacher:
		return p.table([]school.Teacher{x})
	case []school.Teacher:
		rows := make([][]string, 0, len(x))
		for _, t := range x {
			rows = append(rows, []string{t.ID, t.EmployeeNumber, t.FullName(), t.Phone, t.Email, t.Department})
		}
		p.grid([]string{"ID", "Employee No", "Name", "Phone", "Email", "Department"}, rows)

	case school.Class:
		return p.table([]school.Class{x})
	case []school.Class:
		rows := make([][]string, 0, len(x))
		for _, c := range x {
			rows = append(rows, []string{c.ID, c.Name, c.Form, c.ClassTeacherID})
		}
		p.grid([]string{"ID", "Name", "Form", "Class Teacher"}, rows)

	case school.Student:
		return p.table([]school.Student{x})
	case []school.Student:
		rows := make([][]string, 0, len(x))
		for _, s := range x {
			rows = append(rows, []string{s.ID, s.AdmissionNumber, s.FullName(), s.Gender, s.DateOfBirth, s.ClassID})
		}
		p.grid([]string{"ID", "Admission No", "Name", "Gender", "Born", "Class"}, rows)

	case school.Subject:
		return p.table([]school.Subject{x})
	case []school.Subject:
		rows := make([][]string, 0, len(x))
		for _, s := range x {
			rows = append(rows, []string{s.ID, s.Code, s.Name, s.TeacherID})
		}
		p.grid([]string{"ID", "Code", "Name", "Teacher"}, rows)

	case school.Exam:
		return p.table([]school.Exam{x})
	case []school.Exam:
		rows := make([][]string, 0, len(x))
		for _, e := range x {
			rows = append(rows, []string{e.ID, e.Name, e.Date, e.ClassID})
		}
		p.grid([]string{"ID", "Name", "Date", "Class"}, rows)

	case school.Attendance:
		return p.table([]school.Attendance{x})
	case []school.Attendance:
		rows := make([][]string, 0, len(x))
		for _, r := range x {
			rows = append(rows, []string{r.ID, r.StudentID, r.Date, r.Status})
		}
		p.grid([]string{"ID", "Student", "Date", "Status"}, rows)

	case school.Result:
		return p.table([]school.Result{x})
	case []school.Result:
		p.grid([]string{"ID", "Student", "Exam", "Subject", "Score", "Grade", "Remarks"}, resultRows(x))

	case school.AttendanceSummary:
		p.line(titleStyle, "Attendance: %s (%s)", x.Student.FullName(), x.Student.AdmissionNumber)
		p.grid([]string{"Total", "Present", "Absent", "Late", "Attendance"}, [][]string{{
			strconv.FormatInt(x.Total, 10),
			strconv.FormatInt(x.Present, 10),
			strconv.FormatInt(x.Absent, 10),
			strconv.FormatInt(x.Late, 10),
			percent(x.Percentage),
		}})

	case school.Transcript:
		p.line(titleStyle, "Transcript: %s (%s)", x.Student.FullName(), x.Student.AdmissionNumber)
		p.grid([]string{"ID", "Student", "Exam", "Subject", "Score", "Grade", "Remarks"}, resultRows(x.Results))
		if x.Average != nil {
			p.line(titleStyle, "Average score: %.2f", *x.Average)
		}

	case []school.CollectionCount:
		rows := make([][]string, 0, len(x))
		for _, c := range x {
			rows = append(rows, []string{string(c.Collection), strconv.FormatInt(c.Count, 10)})
		}
		p.grid([]string{"Collection", "Records"}, rows)

	default:
		return fmt.Errorf("no table layout for %T", v)
	}
	return nil
}

func resultRows(results []school.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.ID, r.StudentID, r.ExamID, r.SubjectID,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			string(r.Grade),
			r.Remarks,
		})
	}
	return rows
}

func percent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*p, 'f', 1, 64) + "%"
}
