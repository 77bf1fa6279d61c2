package profiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeString SchemaType = "string"
	TypeArray  SchemaType = "array"
)

// Schema describes the JSON shape a model reply must have. It is converted
// into the response schema of whichever SDK backs the Generator, and into a
// JSON Schema document that the decoded reply is validated against before
// any typed result is built.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	// Ordering lists property names in the order the model should emit them.
	Ordering []string

	once       sync.Once
	compiled   *jsonschema.Schema
	compileErr error
}

const schemaURL = "https://clientlens.local/schemas/reply.json"

// Validate checks a value produced by encoding/json against the schema.
// Unknown properties, missing or null required properties, wrong types and
// blank required strings are all rejected.
func (s *Schema) Validate(v any) error {
	s.once.Do(func() {
		s.compiled, s.compileErr = s.compile()
	})
	if s.compileErr != nil {
		return s.compileErr
	}
	return s.compiled.Validate(v)
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return compiled, nil
}

// JSONSchema renders the schema as a draft 2020-12 document.
func (s *Schema) JSONSchema() map[string]any {
	doc := s.jsonSchema(true)
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return doc
}

// jsonSchema renders one node. Optional properties may be null, which the
// typed decode turns into "not mentioned". Required strings need at least
// one non-space character.
func (s *Schema) jsonSchema(required bool) map[string]any {
	doc := map[string]any{}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if required {
		doc["type"] = string(s.Type)
	} else {
		doc["type"] = []string{string(s.Type), "null"}
	}

	switch s.Type {
	case TypeString:
		if required {
			doc["pattern"] = `\S`
		}
	case TypeArray:
		if s.Items != nil {
			items := s.Items.jsonSchema(true)
			delete(items, "pattern")
			doc["items"] = items
		}
	case TypeObject:
		isRequired := make(map[string]bool, len(s.Required))
		for _, name := range s.Required {
			isRequired[name] = true
		}
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.jsonSchema(isRequired[name])
		}
		doc["properties"] = props
		doc["additionalProperties"] = false
		if len(s.Required) > 0 {
			doc["required"] = s.Required
		}
	}
	return doc
}

// PropertyNames returns the object's property names, in Ordering first.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, n := range s.Ordering {
		if _, ok := s.Properties[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	rest := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

var preparationSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"backgroundSummary": {
			Type:        TypeString,
			Description: "A concise professional summary merging internal and external facts.",
		},
		"interviewOutline": {
			Type:        TypeString,
			Description: "Questions and topics to cover, organized by phases (Ice breaking, Discovery, Closing).",
		},
		"suggestedStrategy": {
			Type:        TypeString,
			Description: "A brief strategic advice paragraph on how to approach this person.",
		},
	},
	Required: []string{"backgroundSummary", "interviewOutline", "suggestedStrategy"},
	Ordering: []string{"backgroundSummary", "interviewOutline", "suggestedStrategy"},
}

var analysisSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"meetingReportMarkdown": {
			Type:        TypeString,
			Description: "The full text meeting report formatted in Markdown.",
		},
		"updatedPersonaData": {
			Type:        TypeObject,
			Description: "Structured fields extracted from the conversation.",
			Properties: map[string]*Schema{
				"keyPainPoints": {
					Type:        TypeArray,
					Items:       &Schema{Type: TypeString},
					Description: "List of specific problems the customer is facing.",
				},
				"budget": {
					Type:        TypeString,
					Description: "Estimated budget or financial constraints mentioned.",
				},
				"decisionMakerStatus": {
					Type:        TypeString,
					Description: "Is this person the decision maker? e.g., 'Primary', 'Influencer', 'Gatekeeper'.",
				},
				"industry": {
					Type:        TypeString,
					Description: "The industry they operate in, if mentioned.",
				},
				"tags": {
					Type:        TypeArray,
					Items:       &Schema{Type: TypeString},
					Description: "3-5 short tags describing the client (e.g., 'High Value', 'Urgent', 'Tech-savvy').",
				},
			},
			Ordering: []string{"keyPainPoints", "budget", "decisionMakerStatus", "industry", "tags"},
		},
	},
	Required: []string{"meetingReportMarkdown", "updatedPersonaData"},
	Ordering: []string{"meetingReportMarkdown", "updatedPersonaData"},
}

// PreparationSchema is the reply shape of a pre-interview brief.
func PreparationSchema() *Schema { return preparationSchema }

// AnalysisSchema is the reply shape of a post-interview analysis.
func AnalysisSchema() *Schema { return analysisSchema }
