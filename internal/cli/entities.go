package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alvinp540/edutrack/school"
)

// field is one command line flag. Its JSON key is the flag name with dashes
// replaced by underscores, which is how flag values reach the service input
// and patch types.
type field struct {
	flag     string
	usage    string
	number   bool
	required bool // on add only
}

func (f field) key() string { return strings.ReplaceAll(f.flag, "-", "_") }

// entity describes the commands of one collection. N is the add input, P the
// update patch and T the stored record.
type entity[N, P, T any] struct {
	use     string
	aliases []string
	short   string

	fields       []field
	updateFields []field // defaults to fields

	add    func(*school.Service, context.Context, N) (string, error)
	get    func(*school.Service, context.Context, string) (T, error)
	list   func(*school.Service, context.Context) ([]T, error)
	listBy func(*school.Service, context.Context, string) ([]T, error) // list --student
	update func(*school.Service, context.Context, string, P) error
	remove func(*school.Service, context.Context, string) (int64, error)
}

var teachers = entity[school.NewTeacher, school.TeacherPatch, school.Teacher]{
	use:   "teacher",
	short: "Manage teachers (natural key: employee number)",
	fields: []field{
		{flag: "employee-number", usage: "employee number, e.g. TSC001"},
		{flag: "first-name", usage: "first name"},
		{flag: "last-name", usage: "last name"},
		{flag: "phone", usage: "phone number"},
		{flag: "email", usage: "email address"},
		{flag: "department", usage: "department"},
	},
	add:    (*school.Service).AddTeacher,
	get:    (*school.Service).GetTeacher,
	list:   (*school.Service).ListTeachers,
	update: (*school.Service).UpdateTeacher,
	remove: (*school.Service).DeleteTeacher,
}

var classes = entity[school.NewClass, school.ClassPatch, school.Class]{
	use:   "class",
	short: "Manage classes (natural key: class name)",
	fields: []field{
		{flag: "name", usage: "class name, e.g. Form 2 East"},
		{flag: "form", usage: "form, e.g. Form 2"},
		{flag: "class-teacher", usage: "class teacher id or employee number (\"\" clears on update)"},
	},
	add:    (*school.Service).AddClass,
	get:    (*school.Service).GetClass,
	list:   (*school.Service).ListClasses,
	update: (*school.Service).UpdateClass,
	remove: (*school.Service).DeleteClass,
}

var students = entity[school.NewStudent, school.StudentPatch, school.Student]{
	use:   "student",
	short: "Manage students (natural key: admission number)",
	fields: []field{
		{flag: "admission-number", usage: "admission number, e.g. MAKI2024001"},
		{flag: "first-name", usage: "first name"},
		{flag: "last-name", usage: "last name"},
		{flag: "gender", usage: "gender"},
		{flag: "date-of-birth", usage: "date of birth (YYYY-MM-DD)"},
		{flag: "parent-phone", usage: "parent or guardian phone number"},
		{flag: "class", usage: "class id or name (\"\" clears on update)"},
	},
	add:    (*school.Service).AddStudent,
	get:    (*school.Service).GetStudent,
	list:   (*school.Service).ListStudents,
	update: (*school.Service).UpdateStudent,
	remove: (*school.Service).DeleteStudent,
}

var subjects = entity[school.NewSubject, school.SubjectPatch, school.Subject]{
	use:   "subject",
	short: "Manage subjects (natural key: subject code)",
	fields: []field{
		{flag: "code", usage: "subject code, e.g. MATH"},
		{flag: "name", usage: "subject name"},
		{flag: "teacher", usage: "teacher id or employee number (\"\" clears on update)"},
	},
	add:    (*school.Service).AddSubject,
	get:    (*school.Service).GetSubject,
	list:   (*school.Service).ListSubjects,
	update: (*school.Service).UpdateSubject,
	remove: (*school.Service).DeleteSubject,
}

var exams = entity[school.NewExam, school.ExamPatch, school.Exam]{
	use:   "exam",
	short: "Manage exams (natural key: exam name)",
	fields: []field{
		{flag: "name", usage: "exam name, e.g. Mid Term 1"},
		{flag: "date", usage: "exam date (YYYY-MM-DD)"},
		{flag: "class", usage: "class id or name"},
	},
	add:    (*school.Service).AddExam,
	get:    (*school.Service).GetExam,
	list:   (*school.Service).ListExams,
	update: (*school.Service).UpdateExam,
	remove: (*school.Service).DeleteExam,
}

var attendance = entity[school.NewAttendance, school.AttendancePatch, school.Attendance]{
	use:   "attendance",
	short: "Record and manage attendance (key: id or <student>|<YYYY-MM-DD>)",
	fields: []field{
		{flag: "student", usage: "student id or admission number"},
		{flag: "date", usage: "date (YYYY-MM-DD)"},
		{flag: "status", usage: "Present, Absent or Late"},
	},
	updateFields: []field{
		{flag: "date", usage: "date (YYYY-MM-DD)"},
		{flag: "status", usage: "Present, Absent or Late"},
	},
	add:    (*school.Service).RecordAttendance,
	get:    (*school.Service).GetAttendance,
	list:   (*school.Service).ListAttendance,
	listBy: (*school.Service).StudentAttendance,
	update: (*school.Service).UpdateAttendance,
	remove: (*school.Service).DeleteAttendance,
}

var results = entity[school.NewResult, school.ResultPatch, school.Result]{
	use:   "result",
	short: "Record and manage exam results (key: id only)",
	fields: []field{
		{flag: "student", usage: "student id or admission number"},
		{flag: "exam", usage: "exam id or name"},
		{flag: "subject", usage: "subject id or code"},
		{flag: "score", usage: "score between 0 and 100", number: true, required: true},
		{flag: "remarks", usage: "remarks"},
	},
	updateFields: []field{
		{flag: "score", usage: "score between 0 and 100 (the grade follows)", number: true},
		{flag: "remarks", usage: "remarks"},
	},
	add:    (*school.Service).RecordResult,
	get:    (*school.Service).GetResult,
	list:   (*school.Service).ListResults,
	listBy: (*school.Service).StudentResults,
	update: (*school.Service).UpdateResult,
	remove: (*school.Service).DeleteResult,
}

func entityCommand[N, P, T any](a *app, e entity[N, P, T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     e.use,
		Aliases: e.aliases,
		Short:   e.short,
	}
	updateFields := e.updateFields
	if updateFields == nil {
		updateFields = e.fields
	}

	add := &cobra.Command{
		Use:     "add",
		Aliases: []string{"record"},
		Short:   "Add a " + e.use,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := decode[N](cmd, e.fields, false)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				id, err := e.add(svc, ctx, in)
				if err != nil {
					return err
				}
				return a.print(created{ID: id})
			})
		},
	}
	addFlags(add, e.fields, true)

	get := &cobra.Command{
		Use:   "get REF",
		Short: "Show one " + e.use,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				v, err := e.get(svc, ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(v)
			})
		},
	}

	var student string
	list := &cobra.Command{
		Use:   "list",
		Short: "List every " + e.use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				var (
					items []T
					err   error
				)
				if student != "" {
					items, err = e.listBy(svc, ctx, student)
				} else {
					items, err = e.list(svc, ctx)
				}
				if err != nil {
					return err
				}
				return a.print(items)
			})
		},
	}
	if e.listBy != nil {
		list.Flags().StringVar(&student, "student", "", "only records of this student (id or admission number)")
	}

	update := &cobra.Command{
		Use:   "update REF",
		Short: "Change the given fields of a " + e.use,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := decode[P](cmd, updateFields, true)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				if err := e.update(svc, ctx, args[0], patch); err != nil {
					return err
				}
				return a.print(updated{Ref: args[0]})
			})
		},
	}
	addFlags(update, updateFields, false)

	remove := &cobra.Command{
		Use:     "delete REF",
		Aliases: []string{"rm"},
		Short:   "Delete a " + e.use,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *school.Service) error {
				n, err := e.remove(svc, ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(deleted{Deleted: n})
			})
		},
	}

	cmd.AddCommand(add, get, list, update, remove)
	return cmd
}

func addFlags(cmd *cobra.Command, fields []field, markRequired bool) {
	for _, f := range fields {
		if f.number {
			cmd.Flags().Float64(f.flag, 0, f.usage)
		} else {
			cmd.Flags().String(f.flag, "", f.usage)
		}
		if markRequired && f.required {
			_ = cmd.MarkFlagRequired(f.flag)
		}
	}
}

// decode builds T from the flag values. With onlyChanged, flags the user did
// not pass are left out, which leaves the matching patch fields unset.
func decode[T any](cmd *cobra.Command, fields []field, onlyChanged bool) (T, error) {
	var out T
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		if onlyChanged && !cmd.Flags().Changed(f.flag) {
			continue
		}
		if f.number {
			v, err := cmd.Flags().GetFloat64(f.flag)
			if err != nil {
				return out, err
			}
			values[f.key()] = v
			continue
		}
		v, err := cmd.Flags().GetString(f.flag)
		if err != nil {
			return out, err
		}
		values[f.key()] = v
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode flags: %w", err)
	}
	return out, nil
}
