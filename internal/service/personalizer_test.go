package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"journeybot/internal/model"
)

func TestPersonalizerRender(t *testing.T) {
	p := NewPersonalizer()
	pctx := model.PersonalizationContext{
		ChildName:     "Alice",
		CaregiverName: "Dana",
		Pronoun:       "she",
		Possessive:    "her",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "all placeholders",
			template: "Hi {caregiver}, does {child} lift {possessive} head when {pronoun} plays?",
			want:     "Hi Dana, does Alice lift her head when she plays?",
		},
		{
			name:     "no placeholders",
			template: "Plain text stays plain.",
			want:     "Plain text stays plain.",
		},
		{
			name:     "unknown placeholder passes through",
			template: "Hello {stranger}!",
			want:     "Hello {stranger}!",
		},
		{
			name:     "repeated placeholder",
			template: "{child} and {child}",
			want:     "Alice and Alice",
		},
		{
			name:     "empty template",
			template: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Render(tt.template, pctx))
		})
	}
}

func TestPersonalizerRenderOptions(t *testing.T) {
	p := NewPersonalizer()
	pctx := model.PersonalizationContext{ChildName: "Alice"}

	options := []model.AnswerOption{
		{Value: 1, Label: "Yes, {child} does"},
		{Value: 2, Label: "Not yet"},
	}

	rendered := p.RenderOptions(options, pctx)
	assert.Equal(t, "Yes, Alice does", rendered[0].Label)
	assert.Equal(t, "Not yet", rendered[1].Label)

	// Originals are untouched
	assert.Equal(t, "Yes, {child} does", options[0].Label)

	assert.Nil(t, p.RenderOptions(nil, pctx))
}
