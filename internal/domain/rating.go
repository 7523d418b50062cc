package domain

import "time"

// Rating represents a single user's rating for a prompt template. Users are
// identified only by an opaque hash supplied by the client.
type Rating struct {
	TemplateID string
	UserHash   string
	Value      int
	Comment    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RatingAggregate is the derived average/count for a template. It is
// recomputed from the rating rows on every write, never hand-adjusted.
type RatingAggregate struct {
	TemplateID string
	Average    float64
	Count      int64
	UpdatedAt  time.Time
}
