package profiler

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/BerylCAtieno/clientlens/internal/models"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func renderPrompt(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return b.String(), nil
}

func buildPreparationPrompt(req models.PreparationRequest) (string, error) {
	return renderPrompt("preparation.tmpl", req)
}

func buildAnalysisPrompt(req models.AnalysisRequest) (string, error) {
	return renderPrompt("analysis.tmpl", req)
}
