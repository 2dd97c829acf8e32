package service

import (
	"strings"

	"journeybot/internal/model"
)

// Personalizer renders question/feedback templates into caregiver-facing
// text. Templates use {child}, {caregiver}, {pronoun} and {possessive}
// placeholders; unknown placeholders pass through untouched.
type Personalizer struct{}

// NewPersonalizer creates a new personalizer
func NewPersonalizer() *Personalizer {
	return &Personalizer{}
}

// Render substitutes the personalization placeholders in a template
func (p *Personalizer) Render(template string, pctx model.PersonalizationContext) string {
	if template == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{child}", pctx.ChildName,
		"{caregiver}", pctx.CaregiverName,
		"{pronoun}", pctx.Pronoun,
		"{possessive}", pctx.Possessive,
	)
	return r.Replace(template)
}

// RenderOptions returns a copy of the options with rendered labels
func (p *Personalizer) RenderOptions(options []model.AnswerOption, pctx model.PersonalizationContext) []model.AnswerOption {
	if len(options) == 0 {
		return nil
	}
	rendered := make([]model.AnswerOption, len(options))
	for i, opt := range options {
		rendered[i] = model.AnswerOption{
			Value: opt.Value,
			Label: p.Render(opt.Label, pctx),
		}
	}
	return rendered
}
