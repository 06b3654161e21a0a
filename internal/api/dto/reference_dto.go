package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// TicketTypeEntry payload.
type TicketTypeEntry struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// CategoryEntry payload.
type CategoryEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	TypeCode string `json:"type_code"`
}

// PriorityEntry payload.
type PriorityEntry struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

// ReferenceDataResponse bundles the configurable value sets clients render
// pickers from.
type ReferenceDataResponse struct {
	TicketTypes []TicketTypeEntry `json:"ticket_types"`
	Categories  []CategoryEntry   `json:"categories"`
	Priorities  []PriorityEntry   `json:"priorities"`
}

// NewReferenceDataResponse maps the active reference rows.
func NewReferenceDataResponse(types []domain.TicketTypeConfig, categories []domain.TicketCategoryConfig, priorities []domain.PriorityConfig) ReferenceDataResponse {
	resp := ReferenceDataResponse{
		TicketTypes: make([]TicketTypeEntry, 0, len(types)),
		Categories:  make([]CategoryEntry, 0, len(categories)),
		Priorities:  make([]PriorityEntry, 0, len(priorities)),
	}
	for _, t := range types {
		resp.TicketTypes = append(resp.TicketTypes, TicketTypeEntry{ID: t.ID, Code: t.Code, Label: t.Label})
	}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, CategoryEntry{ID: c.ID, Name: c.Name, TypeCode: c.TypeCode})
	}
	for _, p := range priorities {
		resp.Priorities = append(resp.Priorities, PriorityEntry{ID: p.ID, Code: p.Code, Label: p.Label, DisplayOrder: p.DisplayOrder})
	}
	return resp
}
