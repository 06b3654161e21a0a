package domain

// Reference value sets backing the ticket enums. These are mutable tables
// (labels, active flags) but the lifecycle engine depends only on the stable
// codes, never on display labels.

// TicketTypeConfig is a configurable ticket type entry.
type TicketTypeConfig struct {
	ID       int64
	Code     string
	Label    string
	IsActive bool
}

// TicketCategoryConfig is a configurable category under a ticket type.
type TicketCategoryConfig struct {
	ID       int64
	Name     string
	TypeCode string
	IsActive bool
}

// PriorityConfig is a configurable priority entry.
type PriorityConfig struct {
	ID           int64
	Code         string
	Label        string
	DisplayOrder int
	IsActive     bool
}
