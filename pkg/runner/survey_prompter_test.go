package runner

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ingest/pkg/domain"
)

// scriptedAsk answers prompts by message and records what was asked.
type scriptedAsk struct {
	answers  map[string]any
	asked    []string
	defaults map[string]any
}

func (s *scriptedAsk) ask(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	var message string
	var def any
	switch prompt := p.(type) {
	case *survey.Input:
		message, def = prompt.Message, prompt.Default
	case *survey.Multiline:
		message, def = prompt.Message, prompt.Default
	case *survey.Confirm:
		message, def = prompt.Message, prompt.Default
	case *survey.Select:
		message, def = prompt.Message, prompt.Default
	default:
		return fmt.Errorf("unexpected prompt %T", p)
	}
	s.asked = append(s.asked, message)
	s.defaults[message] = def

	answer, ok := s.answers[message]
	if !ok {
		return fmt.Errorf("no answer for %q", message)
	}
	if err, ok := answer.(error); ok {
		return err
	}
	switch out := response.(type) {
	case *string:
		*out = answer.(string)
	case *bool:
		*out = answer.(bool)
	default:
		return fmt.Errorf("unexpected response type %T", response)
	}
	return nil
}

func uploadStep() *domain.RenderableStep {
	return &domain.RenderableStep{
		Index: 1,
		Total: 2,
		Step:  domain.Step{ID: "upload", Title: "Upload content"},
		Form: &domain.Form{
			Fields: []domain.Field{
				{Name: "dsid", Type: domain.FieldHidden, Default: "OBJ"},
				{Name: "label", Label: "Label", Type: domain.FieldText, Required: true},
				{Name: "public", Label: "Public", Type: domain.FieldCheckbox},
				{Name: "mime_type", Label: "Content type", Type: domain.FieldSelect, Options: []string{"text/plain", "application/xml"}},
				{Name: "content", Label: "Content", Type: domain.FieldFile},
			},
			Values: map[string]any{"label": "Draft", "mime_type": "text/plain"},
			Controls: []domain.Control{
				{Name: domain.ControlPrevious, Action: domain.ActionPrevious},
				{Name: domain.ControlIngest, Action: domain.ActionIngest},
			},
		},
	}
}

func TestSurveyPrompter_Ask(t *testing.T) {
	script := &scriptedAsk{
		answers: map[string]any{
			"Label":        "Letters",
			"Public":       true,
			"Content type": "application/xml",
			"Content":      "<mods/>",
			"Action":       domain.ControlIngest,
		},
		defaults: map[string]any{},
	}
	p := NewSurveyPrompter(nil, &bytes.Buffer{})
	p.ask = script.ask

	control, values, err := p.Ask(context.Background(), uploadStep())
	require.NoError(t, err)

	assert.Equal(t, domain.ControlIngest, control)
	assert.Equal(t, map[string]any{
		"dsid":      "OBJ",
		"label":     "Letters",
		"public":    true,
		"mime_type": "application/xml",
		"content":   "<mods/>",
	}, values)

	assert.Equal(t, []string{"Label", "Public", "Content type", "Content", "Action"}, script.asked)
	assert.Equal(t, "Draft", script.defaults["Label"])
	assert.Equal(t, "text/plain", script.defaults["Content type"])
	assert.Equal(t, domain.ControlIngest, script.defaults["Action"])
}

func TestSurveyPrompter_Interrupt(t *testing.T) {
	script := &scriptedAsk{
		answers:  map[string]any{"Label": terminal.InterruptErr},
		defaults: map[string]any{},
	}
	p := NewSurveyPrompter(nil, &bytes.Buffer{})
	p.ask = script.ask

	_, _, err := p.Ask(context.Background(), uploadStep())
	assert.ErrorIs(t, err, ErrAborted)
}

func TestSurveyPrompter_SingleControlIsNotAsked(t *testing.T) {
	script := &scriptedAsk{
		answers:  map[string]any{"label": "x"},
		defaults: map[string]any{},
	}
	p := NewSurveyPrompter(nil, &bytes.Buffer{})
	p.ask = script.ask

	step := &domain.RenderableStep{Form: &domain.Form{
		Fields:   []domain.Field{{Name: "label", Type: domain.FieldText}},
		Controls: []domain.Control{{Name: domain.ControlNext, Action: domain.ActionNext}},
	}}
	control, values, err := p.Ask(context.Background(), step)
	require.NoError(t, err)
	assert.Equal(t, domain.ControlNext, control)
	assert.Equal(t, map[string]any{"label": "x"}, values)
	assert.Equal(t, []string{"label"}, script.asked)
}
