// internal/models/candidate.go
package models

// SkillTag is a single skill on a candidate profile. Weight is an optional
// proficiency in [0,1]; zero means the proficiency is unknown and the tag
// counts with a neutral weight.
type SkillTag struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
}

// CandidateProfile is a read-only snapshot of a professional profile.
// The profile store owns the record; the engine never mutates it during a run.
type CandidateProfile struct {
	ID                string     `json:"id"`
	Skills            []SkillTag `json:"skills"`
	ExperienceYears   float64    `json:"experienceYears"`
	HourlyRate        float64    `json:"hourlyRate"`
	AvailableHours    float64    `json:"availableHoursPerWeek"`
	Location          string     `json:"location,omitempty"`
	RemoteOnly        bool       `json:"remoteOnly,omitempty"`
	CompletionRate    float64    `json:"completionRate"` // [0,1]
	AverageRating     float64    `json:"averageRating"`  // [0,5]
	CompletedProjects int        `json:"completedProjects"`
}

// SkillNames returns the tag names in declaration order.
func (c CandidateProfile) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		names = append(names, s.Name)
	}
	return names
}
