// Package school implements the EduTrack operations: per-entity add, get,
// list, update and delete, plus the derived reports.
//
// # References
//
// Every operation that names a record accepts either its primary id or its
// natural key:
//
//	teachers  employee_number
//	classes   name
//	students  admission_number
//	subjects  code
//	exams     name
//
// Attendance records accept an id or a "<student>|<YYYY-MM-DD>" composite
// key. Results accept an id only. See [Resolver] for the lookup order.
//
// Resolved references are stored as primary ids, never as natural keys.
//
// # Partial Updates
//
// Patch types wrap each field in store.Optional; only set fields are written:
//
//	err := svc.UpdateResult(ctx, id, school.ResultPatch{Score: store.Some(65.0)})
//
// # Errors
//
//   - [ErrNotFound] - a reference did not resolve ([NotFoundError], [AmbiguousError])
//   - [ErrInvalidInput] - validation failed ([InputError])
//   - [ErrNoMatch] - an update or delete changed nothing
//   - store.ErrUnavailable - the backend could not be reached
package school
