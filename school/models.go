package school

import (
	"time"

	"github.com/alvinp540/edutrack/store"
)

// Attendance statuses.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
)

// Teacher is a member of staff, identified by employee_number.
type Teacher struct {
	ID             string    `json:"id" yaml:"id"`
	EmployeeNumber string    `json:"employee_number" yaml:"employee_number"`
	FirstName      string    `json:"first_name" yaml:"first_name"`
	LastName       string    `json:"last_name" yaml:"last_name"`
	Phone          string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email          string    `json:"email,omitempty" yaml:"email,omitempty"`
	Department     string    `json:"department,omitempty" yaml:"department,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// FullName returns "first last".
func (t Teacher) FullName() string { return t.FirstName + " " + t.LastName }

// NewTeacher is the input of AddTeacher.
type NewTeacher struct {
	EmployeeNumber string `json:"employee_number" validate:"natural"`
	FirstName      string `json:"first_name" validate:"notblank"`
	LastName       string `json:"last_name" validate:"notblank"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	Department     string `json:"department"`
}

func (n NewTeacher) document() store.Document {
	return compact(store.Document{
		"employee_number": n.EmployeeNumber,
		"first_name":      n.FirstName,
		"last_name":       n.LastName,
		"phone":           n.Phone,
		"email":           n.Email,
		"department":      n.Department,
	})
}

// TeacherPatch is the input of UpdateTeacher. Unset fields keep their value.
type TeacherPatch struct {
	EmployeeNumber store.Optional[string] `json:"employee_number"`
	FirstName      store.Optional[string] `json:"first_name"`
	LastName       store.Optional[string] `json:"last_name"`
	Phone          store.Optional[string] `json:"phone"`
	Email          store.Optional[string] `json:"email"`
	Department     store.Optional[string] `json:"department"`
}

func (p TeacherPatch) document() (store.Document, error) {
	if err := checkSet(
		optionalCheck{"employee_number", p.EmployeeNumber, naturalTag},
		optionalCheck{"first_name", p.FirstName, notBlankTag},
		optionalCheck{"last_name", p.LastName, notBlankTag},
		optionalCheck{"email", p.Email, "omitempty,email"},
	); err != nil {
		return nil, err
	}
	set := store.Document{}
	p.EmployeeNumber.ApplyTo(set, "employee_number")
	p.FirstName.ApplyTo(set, "first_name")
	p.LastName.ApplyTo(set, "last_name")
	p.Phone.ApplyTo(set, "phone")
	p.Email.ApplyTo(set, "email")
	p.Department.ApplyTo(set, "department")
	return set, nil
}

func teacherFrom(doc store.Document) Teacher {
	return Teacher{
		ID:             doc.ID(),
		EmployeeNumber: doc.String("employee_number"),
		FirstName:      doc.String("first_name"),
		LastName:       doc.String("last_name"),
		Phone:          doc.String("phone"),
		Email:          doc.String("email"),
		Department:     doc.String("department"),
		CreatedAt:      doc.Time(store.FieldCreatedAt),
	}
}

// Class is a teaching group, identified by name.
type Class struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Form           string    `json:"form" yaml:"form"`
	ClassTeacherID string    `json:"class_teacher_id,omitempty" yaml:"class_teacher_id,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// NewClass is the input of AddClass. ClassTeacher is an optional teacher
// reference (id or employee number).
type NewClass struct {
	Name         string `json:"name" validate:"natural"`
	Form         string `json:"form" validate:"notblank"`
	ClassTeacher string `json:"class_teacher"`
}

// ClassPatch is the input of UpdateClass. Setting ClassTeacher to "" removes
// the class teacher.
type ClassPatch struct {
	Name         store.Optional[string] `json:"name"`
	Form         store.Optional[string] `json:"form"`
	ClassTeacher store.Optional[string] `json:"class_teacher"`
}

func classFrom(doc store.Document) Class {
	return Class{
		ID:             doc.ID(),
		Name:           doc.String("name"),
		Form:           doc.String("form"),
		ClassTeacherID: doc.String("class_teacher_id"),
		CreatedAt:      doc.Time(store.FieldCreatedAt),
	}
}

// Student is a pupil, identified by admission_number.
type Student struct {
	ID              string    `json:"id" yaml:"id"`
	AdmissionNumber string    `json:"admission_number" yaml:"admission_number"`
	FirstName       string    `json:"first_name" yaml:"first_name"`
	LastName        string    `json:"last_name" yaml:"last_name"`
	Gender          string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	DateOfBirth     string    `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	ParentPhone     string    `json:"parent_phone,omitempty" yaml:"parent_phone,omitempty"`
	ClassID         string    `json:"class_id,omitempty" yaml:"class_id,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// FullName returns "first last".
func (s Student) FullName() string { return s.FirstName + " " + s.LastName }

// NewStudent is the input of AddStudent. Class is an optional class
// reference (id or name).
type NewStudent struct {
	AdmissionNumber string `json:"admission_number" validate:"natural"`
	FirstName       string `json:"first_name" validate:"notblank"`
	LastName        string `json:"last_name" validate:"notblank"`
	Gender          string `json:"gender"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	ParentPhone     string `json:"parent_phone"`
	Class           string `json:"class"`
}

// StudentPatch is the input of UpdateStudent. Setting Class to "" removes
// the student from their class.
type StudentPatch struct {
	AdmissionNumber store.Optional[string] `json:"admission_number"`
	FirstName       store.Optional[string] `json:"first_name"`
	LastName        store.Optional[string] `json:"last_name"`
	Gender          store.Optional[string] `json:"gender"`
	DateOfBirth     store.Optional[string] `json:"date_of_birth"`
	ParentPhone     store.Optional[string] `json:"parent_phone"`
	Class           store.Optional[string] `json:"class"`
}

func studentFrom(doc store.Document) Student {
	return Student{
		ID:              doc.ID(),
		AdmissionNumber: doc.String("admission_number"),
		FirstName:       doc.String("first_name"),
		LastName:        doc.String("last_name"),
		Gender:          doc.String("gender"),
		DateOfBirth:     dateString(doc["date_of_birth"]),
		ParentPhone:     doc.String("parent_phone"),
		ClassID:         doc.String("class_id"),
		CreatedAt:       doc.Time(store.FieldCreatedAt),
	}
}

// Subject is a taught subject, identified by code.
type Subject struct {
	ID        string    `json:"id" yaml:"id"`
	Code      string    `json:"code" yaml:"code"`
	Name      string    `json:"name" yaml:"name"`
	TeacherID string    `json:"teacher_id,omitempty" yaml:"teacher_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewSubject is the input of AddSubject. Teacher is an optional teacher reference.
type NewSubject struct {
	Code    string `json:"code" validate:"natural"`
	Name    string `json:"name" validate:"notblank"`
	Teacher string `json:"teacher"`
}

// SubjectPatch is the input of UpdateSubject.
type SubjectPatch struct {
	Code    store.Optional[string] `json:"code"`
	Name    store.Optional[string] `json:"name"`
	Teacher store.Optional[string] `json:"teacher"`
}

func subjectFrom(doc store.Document) Subject {
	return Subject{
		ID:        doc.ID(),
		Code:      doc.String("code"),
		Name:      doc.String("name"),
		TeacherID: doc.String("teacher_id"),
		CreatedAt: doc.Time(store.FieldCreatedAt),
	}
}

// Exam is an examination sitting of one class, identified by name.
type Exam struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Date      string    `json:"date" yaml:"date"`
	ClassID   string    `json:"class_id" yaml:"class_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewExam is the input of AddExam. Class is a required class reference.
type NewExam struct {
	Name  string `json:"name" validate:"natural"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Class string `json:"class" validate:"notblank"`
}

// ExamPatch is the input of UpdateExam.
type ExamPatch struct {
	Name  store.Optional[string] `json:"name"`
	Date  store.Optional[string] `json:"date"`
	Class store.Optional[string] `json:"class"`
}

func examFrom(doc store.Document) Exam {
	return Exam{
		ID:        doc.ID(),
		Name:      doc.String("name"),
		Date:      dateString(doc["date"]),
		ClassID:   doc.String("class_id"),
		CreatedAt: doc.Time(store.FieldCreatedAt),
	}
}

// Attendance records one student's status on one day. Several records for
// the same student and day are allowed.
type Attendance struct {
	ID        string    `json:"id" yaml:"id"`
	StudentID string    `json:"student_id" yaml:"student_id"`
	Date      string    `json:"date" yaml:"date"`
	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewAttendance is the input of RecordAttendance. Student is a student
// reference (id or admission number).
type NewAttendance struct {
	Student string `json:"student" validate:"notblank"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Status  string `json:"status" validate:"required,oneof=Present Absent Late"`
}

// AttendancePatch is the input of UpdateAttendance.
type AttendancePatch struct {
	Date   store.Optional[string] `json:"date"`
	Status store.Optional[string] `json:"status"`
}

func (p AttendancePatch) document() (store.Document, error) {
	if err := checkSet(
		optionalCheck{"date", p.Date, "required,datetime=2006-01-02"},
		optionalCheck{"status", p.Status, "required,oneof=Present Absent Late"},
	); err != nil {
		return nil, err
	}
	set := store.Document{}
	p.Date.ApplyTo(set, "date")
	p.Status.ApplyTo(set, "status")
	return set, nil
}

func attendanceFrom(doc store.Document) Attendance {
	return Attendance{
		ID:        doc.ID(),
		StudentID: doc.String("student_id"),
		Date:      dateString(doc["date"]),
		Status:    doc.String("status"),
		CreatedAt: doc.Time(store.FieldCreatedAt),
	}
}

// Result is one student's score in one subject of one exam. Grade always
// equals GradeOf(Score).
type Result struct {
	ID        string    `json:"id" yaml:"id"`
	StudentID string    `json:"student_id" yaml:"student_id"`
	ExamID    string    `json:"exam_id" yaml:"exam_id"`
	SubjectID string    `json:"subject_id" yaml:"subject_id"`
	Score     float64   `json:"score" yaml:"score"`
	Grade     Grade     `json:"grade" yaml:"grade"`
	Remarks   string    `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewResult is the input of RecordResult. Student, Exam and Subject are
// references (id or natural key). Score is required; a nil Score is
// rejected rather than recorded as zero.
type NewResult struct {
	Student string   `json:"student" validate:"notblank"`
	Exam    string   `json:"exam" validate:"notblank"`
	Subject string   `json:"subject" validate:"notblank"`
	Score   *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Remarks string   `json:"remarks"`
}

// ResultPatch is the input of UpdateResult. Setting Score recomputes the grade.
type ResultPatch struct {
	Score   store.Optional[float64] `json:"score"`
	Remarks store.Optional[string]  `json:"remarks"`
}

func (p ResultPatch) document() (store.Document, error) {
	set := store.Document{}
	if score, ok := p.Score.Get(); ok {
		if err := validateVar("score", score, "gte=0,lte=100"); err != nil {
			return nil, err
		}
		set["score"] = score
		set["grade"] = string(GradeOf(score))
	}
	p.Remarks.ApplyTo(set, "remarks")
	return set, nil
}

func resultFrom(doc store.Document) Result {
	score, _ := doc.Float("score")
	return Result{
		ID:        doc.ID(),
		StudentID: doc.String("student_id"),
		ExamID:    doc.String("exam_id"),
		SubjectID: doc.String("subject_id"),
		Score:     score,
		Grade:     Grade(doc.String("grade")),
		Remarks:   doc.String("remarks"),
		CreatedAt: doc.Time(store.FieldCreatedAt),
	}
}

// compact drops empty strings so optional fields are not stored at all.
func compact(doc store.Document) store.Document {
	for k, v := range doc {
		if s, ok := v.(string); ok && s == "" {
			delete(doc, k)
		}
	}
	return doc
}

// dateString renders a stored date as YYYY-MM-DD. Documents written by other
// clients may hold a datetime instead of a string.
func dateString(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case time.Time:
		return d.Format(dateLayout)
	}
	return ""
}

type optionalCheck struct {
	field string
	value store.Optional[string]
	tag   string
}

// checkSet validates the set fields among checks.
func checkSet(checks ...optionalCheck) error {
	for _, c := range checks {
		if v, ok := c.value.Get(); ok {
			if err := validateVar(c.field, v, c.tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func convert[T any](docs []store.Document, from func(store.Document) T) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		out = append(out, from(doc))
	}
	return out
}
