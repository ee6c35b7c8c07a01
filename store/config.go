package store

// Config holds the storage layout shared by all backends.
type Config struct {
	// TablePrefix is prepended to collection names to form table (DynamoDB),
	// collection (MongoDB) or key prefix (Badger) names.
	// Default: "" (collection names are used as is)
	TablePrefix string

	// Indexes lists the fields of each collection that are looked up by
	// equality often enough to deserve a secondary index: natural keys and
	// reference fields.
	//
	// DynamoDB expects a global secondary index named IndexName(field) with
	// field as its partition key. Badger maintains index keys for these fields.
	// MongoDB ignores this setting.
	Indexes map[Collection][]string
}

// DefaultConfig returns the layout used by the edutrack tables.
func DefaultConfig() Config {
	return Config{
		Indexes: map[Collection][]string{
			Teachers:   {"employee_number"},
			Classes:    {"name", "class_teacher_id"},
			Students:   {"admission_number", "class_id"},
			Subjects:   {"code", "teacher_id"},
			Attendance: {"student_id"},
			Exams:      {"name", "class_id"},
			Results:    {"student_id", "exam_id", "subject_id"},
		},
	}
}

// WithDefaults fills unset values from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.Indexes == nil {
		c.Indexes = DefaultConfig().Indexes
	}
	return c
}

// TableName returns the physical name of collection coll.
func (c Config) TableName(coll Collection) string {
	return c.TablePrefix + string(coll)
}

// IsIndexed reports whether field of coll has a secondary index.
func (c Config) IsIndexed(coll Collection, field string) bool {
	for _, f := range c.Indexes[coll] {
		if f == field {
			return true
		}
	}
	return false
}

// IndexName returns the DynamoDB global secondary index name for field.
func IndexName(field string) string {
	return field + "-index"
}
