package school

import (
	"context"

	"github.com/alvinp540/edutrack/store"
)

var newestFirst = []store.Ordering{
	{Field: "date", Ascending: false},
	{Field: store.FieldCreatedAt, Ascending: false},
}

// RecordAttendance stores one attendance record and returns its id. Several
// records for the same student and date are accepted.
func (s *Service) RecordAttendance(ctx context.Context, in NewAttendance) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	studentID, err := s.resolver.Resolve(ctx, store.Students, in.Student)
	if err != nil {
		return "", err
	}
	return s.insert(ctx, store.Attendance, store.Document{
		"student_id": studentID,
		"date":       in.Date,
		"status":     in.Status,
	})
}

// GetAttendance returns the record ref refers to: an id or a
// "<student>|<YYYY-MM-DD>" composite key.
func (s *Service) GetAttendance(ctx context.Context, ref string) (Attendance, error) {
	doc, err := s.resolver.Document(ctx, store.Attendance, ref)
	if err != nil {
		return Attendance{}, err
	}
	return attendanceFrom(doc), nil
}

// ListAttendance returns every attendance record, newest first.
func (s *Service) ListAttendance(ctx context.Context) ([]Attendance, error) {
	docs, err := s.list(ctx, store.Attendance, store.Filter{}, newestFirst...)
	if err != nil {
		return nil, err
	}
	return convert(docs, attendanceFrom), nil
}

// StudentAttendance returns a student's attendance records, newest first.
func (s *Service) StudentAttendance(ctx context.Context, studentRef string) ([]Attendance, error) {
	studentID, err := s.resolver.Resolve(ctx, store.Students, studentRef)
	if err != nil {
		return nil, err
	}
	docs, err := s.list(ctx, store.Attendance, store.Filter{"student_id": studentID}, newestFirst...)
	if err != nil {
		return nil, err
	}
	return convert(docs, attendanceFrom), nil
}

// UpdateAttendance applies the set fields of p to the record ref refers to.
func (s *Service) UpdateAttendance(ctx context.Context, ref string, p AttendancePatch) error {
	set, err := p.document()
	if err != nil {
		return err
	}
	return s.update(ctx, store.Attendance, ref, set)
}

// DeleteAttendance deletes the record ref refers to.
func (s *Service) DeleteAttendance(ctx context.Context, ref string) (int64, error) {
	return s.remove(ctx, store.Attendance, ref)
}
