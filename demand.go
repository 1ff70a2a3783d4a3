package radar

import (
	"context"
	"time"
)

// Solution is the product idea proposed for a demand.
type Solution struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	TargetUser         string   `json:"targetUser"`
	KeyDifferentiators []string `json:"keyDifferentiators"`
}

// Validation is the evidence backing a demand.
type Validation struct {
	PainPoints     []string `json:"painPoints"`
	Competitors    []string `json:"competitors"`
	CompetitorGaps []string `json:"competitorGaps"`
	Quotes         []string `json:"quotes"`
}

// DemandCandidate is one model-proposed opportunity that has not been
// committed to storage.
type DemandCandidate struct {
	ID         string     `json:"id"`
	Solution   Solution   `json:"solution"`
	Validation Validation `json:"validation"`
}

// Validate returns an error if the candidate is missing required fields.
func (c *DemandCandidate) Validate() error {
	if c.Solution.Title == "" {
		return Errorf(EPARSE, "demand solution title required")
	}
	return nil
}

// Demand is a persisted opportunity.
type Demand struct {
	ID           string     `json:"id"`
	ExtractionID string     `json:"extractionId"`
	Solution     Solution   `json:"solution"`
	Validation   Validation `json:"validation"`
	SourceURL    string     `json:"sourceUrl"`
	SourceTitle  string     `json:"sourceTitle"`
	Starred      bool       `json:"starred"`
	Archived     bool       `json:"archived"`
	Notes        string     `json:"notes,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Validate returns an error if the demand contains invalid fields.
func (d *Demand) Validate() error {
	if d.ExtractionID == "" {
		return Errorf(EINVALID, "demand extraction ID required")
	}
	if d.Solution.Title == "" {
		return Errorf(EINVALID, "demand solution title required")
	}
	return nil
}

// NewDemand builds a demand record from a candidate captured from ex.
func NewDemand(ex *Extraction, c DemandCandidate) *Demand {
	return &Demand{
		ExtractionID: ex.ID,
		Solution:     c.Solution,
		Validation:   c.Validation,
		SourceURL:    ex.URL,
		SourceTitle:  ex.Title,
	}
}

// DemandService represents a service for managing demands.
type DemandService interface {
	// CreateDemands creates demands in a single transaction.
	CreateDemands(ctx context.Context, demands []*Demand) error

	// FindDemandByID retrieves a demand by ID.
	// Returns ENOTFOUND if the demand does not exist.
	FindDemandByID(ctx context.Context, id string) (*Demand, error)

	// FindDemands retrieves demands matching the filter.
	FindDemands(ctx context.Context, filter DemandFilter) ([]*Demand, error)

	// UpdateDemand updates an existing demand.
	// Returns ENOTFOUND if the demand does not exist.
	UpdateDemand(ctx context.Context, id string, upd DemandUpdate) (*Demand, error)

	// DeleteDemand permanently removes a demand.
	// Returns ENOTFOUND if the demand does not exist.
	DeleteDemand(ctx context.Context, id string) error

	// DeleteDemands removes all demands with the given IDs.
	DeleteDemands(ctx context.Context, ids []string) error
}

// DemandFilter represents a filter for FindDemands.
type DemandFilter struct {
	ID           *string `json:"id"`
	ExtractionID *string `json:"extractionId"`
	Starred      *bool   `json:"starred"`
	Archived     *bool   `json:"archived"`

	// Query matches a substring of the title, description or pain points.
	// Archived demands are excluded when Query is set and Archived is nil.
	Query string `json:"query"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DemandUpdate represents fields that can be updated on a demand.
type DemandUpdate struct {
	Solution   *Solution   `json:"solution"`
	Validation *Validation `json:"validation"`
	Starred    *bool       `json:"starred"`
	Archived   *bool       `json:"archived"`
	Notes      *string     `json:"notes"`
	Tags       []string    `json:"tags"`
}
