package jobs

import "time"

type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	JobType         string    `json:"job_type"`
	Salary          string    `json:"salary,omitempty"`
	Description     string    `json:"description"`
	RequiredSkills  []string  `json:"required_skills"`
	VisaSponsorship bool      `json:"visa_sponsorship"`
	CreatedAt       time.Time `json:"created_at"`
}
