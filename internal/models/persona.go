package models

import "strings"

type Status string

const (
	StatusLead     Status = "Lead"
	StatusActive   Status = "Active"
	StatusChurned  Status = "Churned"
	StatusProspect Status = "Prospect"
)

func (s Status) Valid() bool {
	switch s {
	case StatusLead, StatusActive, StatusChurned, StatusProspect:
		return true
	}
	return false
}

// Engagement is one entry of a persona's interview history.
type Engagement struct {
	ID      string `json:"id" yaml:"id"`
	Date    string `json:"date" yaml:"date"`
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`
}

type Persona struct {
	ID                  string       `json:"id" yaml:"id"`
	Name                string       `json:"name" yaml:"name"`
	Company             string       `json:"company" yaml:"company"`
	Role                string       `json:"role" yaml:"role"`
	Industry            string       `json:"industry" yaml:"industry"`
	KeyPainPoints       []string     `json:"keyPainPoints" yaml:"keyPainPoints"`
	Budget              string       `json:"budget,omitempty" yaml:"budget"`
	DecisionMakerStatus string       `json:"decisionMakerStatus,omitempty" yaml:"decisionMakerStatus"`
	LastInterviewDate   string       `json:"lastInterviewDate,omitempty" yaml:"lastInterviewDate"`
	Tags                []string     `json:"tags" yaml:"tags"`
	Status              Status       `json:"status" yaml:"status"`
	History             []Engagement `json:"history" yaml:"history"`
}

// Clone returns a copy that shares no slices with p.
func (p Persona) Clone() Persona {
	c := p
	c.KeyPainPoints = cloneStrings(p.KeyPainPoints)
	c.Tags = cloneStrings(p.Tags)
	if p.History != nil {
		c.History = make([]Engagement, len(p.History))
		copy(c.History, p.History)
	}
	return c
}

// Apply returns p with every field present in patch overwritten. Fields the
// patch leaves nil keep their current value; history is never touched.
func (p Persona) Apply(patch PersonaPatch) Persona {
	out := p.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Company != nil {
		out.Company = *patch.Company
	}
	if patch.Role != nil {
		out.Role = *patch.Role
	}
	if patch.Industry != nil {
		out.Industry = *patch.Industry
	}
	if patch.Budget != nil {
		out.Budget = *patch.Budget
	}
	if patch.DecisionMakerStatus != nil {
		out.DecisionMakerStatus = *patch.DecisionMakerStatus
	}
	if patch.LastInterviewDate != nil {
		out.LastInterviewDate = *patch.LastInterviewDate
	}
	if patch.Status != nil {
		out.Status = *patch.Status
	}
	if patch.KeyPainPoints != nil {
		out.KeyPainPoints = cloneStrings(patch.KeyPainPoints)
	}
	if patch.Tags != nil {
		out.Tags = cloneStrings(patch.Tags)
	}
	return out
}

// PersonaPatch is a partial persona. A nil field means "leave unchanged";
// an empty, non-nil slice clears the list.
type PersonaPatch struct {
	Name                *string  `json:"name,omitempty"`
	Company             *string  `json:"company,omitempty"`
	Role                *string  `json:"role,omitempty"`
	Industry            *string  `json:"industry,omitempty"`
	Budget              *string  `json:"budget,omitempty"`
	DecisionMakerStatus *string  `json:"decisionMakerStatus,omitempty"`
	LastInterviewDate   *string  `json:"lastInterviewDate,omitempty"`
	Status              *Status  `json:"status,omitempty"`
	KeyPainPoints       []string `json:"keyPainPoints,omitempty"`
	Tags                []string `json:"tags,omitempty"`
}

func (p PersonaPatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.Role == nil && p.Industry == nil &&
		p.Budget == nil && p.DecisionMakerStatus == nil && p.LastInterviewDate == nil &&
		p.Status == nil && p.KeyPainPoints == nil && p.Tags == nil
}

// Validate rejects patches that would leave a persona in an invalid state.
func (p PersonaPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalidInput("status %q is not one of Lead, Active, Churned, Prospect", *p.Status)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalidInput("name cannot be blank")
	}
	return nil
}

// String returns a pointer to s, for building patches.
func String(s string) *string {
	return &s
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
