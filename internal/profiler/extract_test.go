package profiler

import (
	"testing"

	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", `{"a":"b"}`, `{"a":"b"}`},
		{"surrounding text", "Here you go:\n{\"a\":1}\nDone.", `{"a":1}`},
		{"nested", `{"a":{"b":{}}} trailing {"c":2}`, `{"a":{"b":{}}}`},
		{"brace in string", `{"a":"}{","b":"\"}"}`, `{"a":"}{","b":"\"}"}`},
		{"none", "no json here", ""},
		{"unbalanced", `{"a":{`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONBlock(tt.in))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "{\"a\":1}", stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", stripCodeFences("plain"))
}

func TestDecodeReply_TrailingContent(t *testing.T) {
	const obj = `{"backgroundSummary":"a","interviewOutline":"b","suggestedStrategy":"c"}`

	got, err := decodeReply[models.PreparationResult]("Here it is:\n```json\n"+obj+"\n```\n\n", preparationSchema)
	require.NoError(t, err)
	assert.Equal(t, "c", got.SuggestedStrategy)

	_, err = decodeReply[models.PreparationResult](obj+` and then {"broken": `, preparationSchema)
	assert.ErrorIs(t, err, ErrInvalidOutput)

	_, err = decodeReply[models.PreparationResult](obj+"\nHope this helps!", preparationSchema)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}
