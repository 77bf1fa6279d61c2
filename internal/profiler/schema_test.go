package profiler

import (
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(s))
	require.NoError(t, err)
	return v
}

// leafErrors flattens a validation error into the failures that caused it,
// keyed by instance location.
func leafErrors(err *jsonschema.ValidationError) map[string]jsonschema.ErrorKind {
	out := map[string]jsonschema.ErrorKind{}
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out["/"+strings.Join(e.InstanceLocation, "/")] = e.ErrorKind
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	return out
}

func TestSchemaValidate(t *testing.T) {
	schema := AnalysisSchema()

	assert.NoError(t, schema.Validate(mustJSON(t,
		`{"meetingReportMarkdown":"# Report","updatedPersonaData":{"tags":["Urgent"],"budget":"$1"}}`)))
	assert.NoError(t, schema.Validate(mustJSON(t,
		`{"meetingReportMarkdown":"# Report","updatedPersonaData":{"budget":null,"tags":[""]}}`)),
		"optional fields may be null and list items may be blank")

	tests := []struct {
		name     string
		in       string
		location string
		want     jsonschema.ErrorKind
	}{
		{"not an object", `[]`, "/", &kind.Type{}},
		{"missing report", `{"updatedPersonaData":{}}`, "/", &kind.Required{}},
		{"null required", `{"meetingReportMarkdown":"x","updatedPersonaData":null}`, "/updatedPersonaData", &kind.Type{}},
		{"blank required", `{"meetingReportMarkdown":"  ","updatedPersonaData":{}}`, "/meetingReportMarkdown", &kind.Pattern{}},
		{"array item type", `{"meetingReportMarkdown":"x","updatedPersonaData":{"tags":[1]}}`, "/updatedPersonaData/tags/0", &kind.Type{}},
		{"unknown nested", `{"meetingReportMarkdown":"x","updatedPersonaData":{"history":[]}}`, "/updatedPersonaData", &kind.AdditionalProperties{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(mustJSON(t, tt.in))
			var verr *jsonschema.ValidationError
			require.ErrorAs(t, err, &verr)

			leaves := leafErrors(verr)
			require.Contains(t, leaves, tt.location)
			assert.IsType(t, tt.want, leaves[tt.location])
		})
	}
}

func TestSchemaJSONSchema(t *testing.T) {
	doc := PreparationSchema().JSONSchema()
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []string{"backgroundSummary", "interviewOutline", "suggestedStrategy"}, doc["required"])

	props := doc["properties"].(map[string]any)
	summary := props["backgroundSummary"].(map[string]any)
	assert.Equal(t, "string", summary["type"])
	assert.Equal(t, `\S`, summary["pattern"])

	budget := AnalysisSchema().JSONSchema()["properties"].(map[string]any)["updatedPersonaData"].(map[string]any)["properties"].(map[string]any)["budget"].(map[string]any)
	assert.Equal(t, []string{"string", "null"}, budget["type"])
}

func TestSchemaPropertyNames(t *testing.T) {
	assert.Equal(t,
		[]string{"backgroundSummary", "interviewOutline", "suggestedStrategy"},
		PreparationSchema().PropertyNames())
}
