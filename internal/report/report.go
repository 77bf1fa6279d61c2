// Package report renders personas, briefs and analyses as markdown for the
// A2A agent and the non-interactive CLI commands.
package report

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

// CardPainPoints is how many pain points a persona card shows.
const CardPainPoints = 3

// LastInterview returns the persona's last interview date, or "Never".
func LastInterview(p models.Persona) string {
	if p.LastInterviewDate == "" {
		return "Never"
	}
	return p.LastInterviewDate
}

// PickerLabel is the label of a persona in customer pickers.
func PickerLabel(p models.Persona) string {
	return fmt.Sprintf("%s - %s", p.Name, p.Company)
}

// TopPainPoints returns at most CardPainPoints pain points.
func TopPainPoints(p models.Persona) []string {
	if len(p.KeyPainPoints) <= CardPainPoints {
		return p.KeyPainPoints
	}
	return p.KeyPainPoints[:CardPainPoints]
}

// Hashtags formats tags as "#Tag #Other".
func Hashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, "#"+t)
		}
	}
	return strings.Join(out, " ")
}

// PersonaList renders every persona as a short card, in the given order.
func PersonaList(personas []models.Persona) string {
	if len(personas) == 0 {
		return "No personas in the database."
	}

	var b strings.Builder
	b.WriteString("# Customer Persona Database\n")
	for _, p := range personas {
		b.WriteString(fmt.Sprintf("\n## %s (%s)\n", p.Name, p.Status))
		b.WriteString(fmt.Sprintf("%s, %s · id `%s`\n\n", p.Role, p.Company, p.ID))
		b.WriteString(fmt.Sprintf("- Budget: %s\n", orDash(p.Budget)))
		b.WriteString(fmt.Sprintf("- Last interview: %s\n", LastInterview(p)))
		if pains := TopPainPoints(p); len(pains) > 0 {
			b.WriteString(fmt.Sprintf("- Pain points: %s\n", strings.Join(pains, "; ")))
		}
		if tags := Hashtags(p.Tags); tags != "" {
			b.WriteString(fmt.Sprintf("- Tags: %s\n", tags))
		}
	}
	return b.String()
}

// PersonaDetail renders a full profile. History is listed in stored order.
func PersonaDetail(p models.Persona) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", p.Name))
	b.WriteString(fmt.Sprintf("%s at %s · %s\n\n", p.Role, p.Company, p.Status))

	b.WriteString("**Profile:**\n")
	b.WriteString(fmt.Sprintf("- Industry: %s\n", orDash(p.Industry)))
	b.WriteString(fmt.Sprintf("- Budget: %s\n", orDash(p.Budget)))
	b.WriteString(fmt.Sprintf("- Decision maker: %s\n", orDash(p.DecisionMakerStatus)))
	b.WriteString(fmt.Sprintf("- Last interview: %s\n", LastInterview(p)))

	if len(p.KeyPainPoints) > 0 {
		b.WriteString("\n**Pain Points:**\n")
		for _, pp := range p.KeyPainPoints {
			b.WriteString(fmt.Sprintf("- %s\n", pp))
		}
	}
	if tags := Hashtags(p.Tags); tags != "" {
		b.WriteString(fmt.Sprintf("\n**Tags:** %s\n", tags))
	}

	b.WriteString("\n**Engagement History:**\n")
	if len(p.History) == 0 {
		b.WriteString("_No recorded engagements._\n")
	}
	for _, h := range p.History {
		b.WriteString(fmt.Sprintf("\n### %s · %s\n%s\n", h.Date, h.Title, h.Summary))
	}
	return b.String()
}

// Brief renders a pre-interview preparation result.
func Brief(req models.PreparationRequest, res models.PreparationResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Interview Brief: %s at %s\n\n", req.CustomerName, req.CompanyName))
	b.WriteString("## Background Summary\n\n")
	b.WriteString(strings.TrimSpace(res.BackgroundSummary))
	b.WriteString("\n\n## Interview Outline\n\n")
	b.WriteString(strings.TrimSpace(res.InterviewOutline))
	b.WriteString("\n\n## Suggested Strategy\n\n")
	b.WriteString(strings.TrimSpace(res.SuggestedStrategy))
	b.WriteString("\n")
	return b.String()
}

// UpdatePreview lists the persona fields an analysis proposes to change.
func UpdatePreview(patch models.PersonaPatch) string {
	var b strings.Builder
	if patch.DecisionMakerStatus != nil {
		b.WriteString(fmt.Sprintf("- Role: %s\n", *patch.DecisionMakerStatus))
	}
	if patch.Budget != nil {
		b.WriteString(fmt.Sprintf("- Budget: %s\n", *patch.Budget))
	}
	if patch.Industry != nil {
		b.WriteString(fmt.Sprintf("- Industry: %s\n", *patch.Industry))
	}
	if patch.KeyPainPoints != nil {
		b.WriteString("- Pain points:\n")
		for _, pp := range patch.KeyPainPoints {
			b.WriteString(fmt.Sprintf("  - %s\n", pp))
		}
	}
	if patch.Tags != nil {
		b.WriteString(fmt.Sprintf("- Tags: %s\n", Hashtags(patch.Tags)))
	}
	if b.Len() == 0 {
		return "- No persona fields detected.\n"
	}
	return b.String()
}

// Analysis renders the meeting report followed by the proposed update.
func Analysis(customerName string, res models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(res.MeetingReportMarkdown))
	b.WriteString("\n\n---\n\n")
	b.WriteString(fmt.Sprintf("**Detected updates for %s:**\n", customerName))
	b.WriteString(UpdatePreview(res.UpdatedPersonaData))
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
