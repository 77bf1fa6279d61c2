package a2a

import (
	"encoding/json"
	"strings"
)

// fieldAliases maps normalised keys to request fields.
var fieldAliases = map[string]string{
	"task":           "task",
	"mode":           "task",
	"customername":   "customerName",
	"customer":       "customerName",
	"name":           "customerName",
	"companyname":    "companyName",
	"company":        "companyName",
	"internalnotes":  "internalNotes",
	"crmnotes":       "internalNotes",
	"externalinfo":   "externalInfo",
	"external":       "externalInfo",
	"publicinfo":     "externalInfo",
	"customerid":     "customerId",
	"id":             "customerId",
	"notes":          "interviewNotes",
	"interviewnotes": "interviewNotes",
	"transcript":     "interviewNotes",
}

func normaliseKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
}

// request is what a user message asks for.
type request struct {
	fields map[string]string
	text   string
}

func (r request) get(name string) string {
	return strings.TrimSpace(r.fields[name])
}

// parseMessage reads fields from data parts (JSON objects) and from text
// parts written as "key: value" lines. A line without a known key continues
// the previous value, so notes can span several lines.
func parseMessage(msg A2AMessage) request {
	req := request{fields: map[string]string{}}
	var texts []string

	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if t := cleanText(part.Text); t != "" {
				texts = append(texts, t)
				parseKeyValues(t, req.fields)
			}
		case "data":
			parseData(part.Data, req.fields)
		}
	}
	req.text = strings.TrimSpace(strings.Join(texts, "\n"))
	return req
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = strings.ReplaceAll(s, "<br>", "\n")
	return strings.TrimSpace(s)
}

func parseKeyValues(text string, out map[string]string) {
	current := ""
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if found {
			if field, ok := fieldAliases[normaliseKey(key)]; ok {
				current = field
				out[field] = strings.TrimSpace(value)
				continue
			}
		}
		if current != "" && strings.TrimSpace(line) != "" {
			out[current] = strings.TrimSpace(out[current] + "\n" + strings.TrimSpace(line))
		}
	}
}

func parseData(data any, out map[string]string) {
	var obj map[string]any
	switch v := data.(type) {
	case map[string]any:
		obj = v
	case json.RawMessage:
		json.Unmarshal(v, &obj)
	case string:
		json.Unmarshal([]byte(v), &obj)
	}
	for k, v := range obj {
		field, ok := fieldAliases[normaliseKey(k)]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			out[field] = s
		}
	}
}
