// internal/models/request.go
package models

import "time"

// RequestSpec is a read-only snapshot of a posted job request.
type RequestSpec struct {
	ID             string     `json:"id"`
	Category       string     `json:"category,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	RequiredSkills []string   `json:"requiredSkills"`
	BudgetMin      float64    `json:"budgetMin"`
	BudgetMax      float64    `json:"budgetMax"`
	EstimatedHours float64    `json:"estimatedHours"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Complexity     int        `json:"complexityLevel"` // ordinal 1-5
	Urgency        int        `json:"urgencyLevel"`    // ordinal 1-5
	Location       string     `json:"location,omitempty"`
	OnSiteOnly     bool       `json:"onSiteOnly,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
