package school

import (
	"context"
	"fmt"
	"math"

	"github.com/alvinp540/edutrack/store"
)

// AttendanceSummary counts a student's attendance records by status.
// Records with any other status count toward Total only. Percentage is nil
// when the student has no records.
type AttendanceSummary struct {
	Student    Student  `json:"student" yaml:"student"`
	Total      int64    `json:"total" yaml:"total"`
	Present    int64    `json:"present" yaml:"present"`
	Absent     int64    `json:"absent" yaml:"absent"`
	Late       int64    `json:"late" yaml:"late"`
	Percentage *float64 `json:"percentage" yaml:"percentage"`
}

// Transcript is a student with all of their results. Average is the mean
// score rounded to two decimals, nil when there are no results.
type Transcript struct {
	Student Student  `json:"student" yaml:"student"`
	Results []Result `json:"results" yaml:"results"`
	Average *float64 `json:"average" yaml:"average"`
}

// CollectionCount is the number of documents in one collection.
type CollectionCount struct {
	Collection store.Collection `json:"collection" yaml:"collection"`
	Count      int64            `json:"count" yaml:"count"`
}

// AttendanceSummary resolves studentRef and counts their attendance by status.
func (s *Service) AttendanceSummary(ctx context.Context, studentRef string) (AttendanceSummary, error) {
	doc, err := s.resolver.Document(ctx, store.Students, studentRef)
	if err != nil {
		return AttendanceSummary{}, err
	}

	counts, err := store.CountBy(ctx, s.backend, store.Attendance,
		store.Filter{"student_id": doc.ID()}, "status")
	if err != nil {
		return AttendanceSummary{}, fmt.Errorf("count attendance: %w", err)
	}

	summary := AttendanceSummary{
		Student: studentFrom(doc),
		Present: counts[StatusPresent],
		Absent:  counts[StatusAbsent],
		Late:    counts[StatusLate],
	}
	for _, n := range counts {
		summary.Total += n
	}
	if pct, ok := AttendancePercentage(summary.Present, summary.Total); ok {
		summary.Percentage = &pct
	}
	return summary, nil
}

// Transcript resolves studentRef and returns the student with their results.
// A student without results gets an empty list, not an error.
func (s *Service) Transcript(ctx context.Context, studentRef string) (Transcript, error) {
	doc, err := s.resolver.Document(ctx, store.Students, studentRef)
	if err != nil {
		return Transcript{}, err
	}
	results, err := s.resultsOf(ctx, doc.ID())
	if err != nil {
		return Transcript{}, err
	}

	t := Transcript{Student: studentFrom(doc), Results: results}
	if len(results) > 0 {
		var total float64
		for _, r := range results {
			total += r.Score
		}
		avg := math.Round(total/float64(len(results))*100) / 100
		t.Average = &avg
	}
	return t, nil
}

// Roster resolves classRef and returns its students ordered by admission number.
func (s *Service) Roster(ctx context.Context, classRef string) ([]Student, error) {
	classID, err := s.resolver.Resolve(ctx, store.Classes, classRef)
	if err != nil {
		return nil, err
	}
	docs, err := s.list(ctx, store.Students, store.Filter{"class_id": classID},
		store.Ordering{Field: "admission_number", Ascending: true})
	if err != nil {
		return nil, err
	}
	return convert(docs, studentFrom), nil
}

// RecordResult resolves the student, exam and subject references, then
// stores one result graded with GradeOf. Nothing is written unless all
// three resolve.
func (s *Service) RecordResult(ctx context.Context, in NewResult) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}

	refs := []struct {
		field string
		c     store.Collection
		ref   string
	}{
		{"student_id", store.Students, in.Student},
		{"exam_id", store.Exams, in.Exam},
		{"subject_id", store.Subjects, in.Subject},
	}
	score := *in.Score
	doc := store.Document{
		"score": score,
		"grade": string(GradeOf(score)),
	}
	for _, r := range refs {
		id, err := s.resolver.Resolve(ctx, r.c, r.ref)
		if err != nil {
			return "", err
		}
		doc[r.field] = id
	}
	if in.Remarks != "" {
		doc["remarks"] = in.Remarks
	}
	return s.insert(ctx, store.Results, doc)
}

// Stats returns the number of documents in every collection.
func (s *Service) Stats(ctx context.Context) ([]CollectionCount, error) {
	out := make([]CollectionCount, 0, len(store.Collections))
	for _, c := range store.Collections {
		n, err := s.backend.Count(ctx, c, store.Filter{})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c, err)
		}
		out = append(out, CollectionCount{Collection: c, Count: n})
	}
	return out, nil
}
