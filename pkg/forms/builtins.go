package forms

import (
	"context"
	"fmt"

	"github.com/aretw0/ingest/pkg/domain"
)

// Built-in renderer ids.
const (
	RendererObjectDetails = "object-details"
	RendererUpload        = "upload"
)

// DefaultMimeTypes are offered by the upload step when its args name none.
var DefaultMimeTypes = []string{"text/plain", "text/markdown", "application/json", "application/xml"}

// RegisterBuiltins registers the object-details and upload steps.
func RegisterBuiltins(e *Engine) {
	e.MustRegister(RendererObjectDetails, Handler{
		Build:    buildObjectDetails,
		Validate: validateObjectDetails,
		Submit:   submitObjectDetails,
	})
	e.MustRegister(RendererUpload, Handler{
		Build:    buildUpload,
		Validate: validateUpload,
		Submit:   submitUpload,
		Raw:      []string{"content"},
	})
}

// BuiltinSteps returns descriptors for the built-in renderers.
func BuiltinSteps() []domain.Step {
	return []domain.Step{
		{
			ID:          RendererObjectDetails,
			Weight:      -10,
			Type:        domain.StepTypeForm,
			Renderer:    RendererObjectDetails,
			Title:       "Describe the object",
			Description: "Give the new object a **label** and an optional description.",
		},
		{
			ID:          RendererUpload,
			Weight:      10,
			Type:        domain.StepTypeForm,
			Renderer:    RendererUpload,
			Title:       "Upload content",
			Description: "Paste the content of the primary datastream.",
		},
	}
}

type objectDetails struct {
	Label       string `mapstructure:"label"`
	Description string `mapstructure:"description"`
}

func seedObject(state *domain.WizardState) (*domain.DraftObject, error) {
	obj, ok := state.Object(0)
	if !ok {
		return nil, fmt.Errorf("wizard %s has no pending object", state.SessionID)
	}
	return obj, nil
}

func buildObjectDetails(ctx context.Context, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error) {
	form := &domain.Form{
		Fields: []domain.Field{
			{Name: "label", Label: "Label", Type: domain.FieldText, Required: true},
			{Name: "description", Label: "Description", Type: domain.FieldTextarea},
		},
		Values: map[string]any{},
	}
	if obj, err := seedObject(state); err == nil {
		form.Values["label"] = obj.Label
		if d, ok := obj.Properties["description"]; ok {
			form.Values["description"] = d
		}
	}
	return form, nil
}

func validateObjectDetails(ctx context.Context, state *domain.WizardState, values map[string]any) (map[string]string, error) {
	return Required(values, "label"), nil
}

func submitObjectDetails(ctx context.Context, state *domain.WizardState, values map[string]any) error {
	var in objectDetails
	if err := Decode(values, &in); err != nil {
		return err
	}
	obj, err := seedObject(state)
	if err != nil {
		return err
	}
	obj.Label = in.Label
	if in.Description != "" {
		obj.SetProperty("description", in.Description)
	} else {
		delete(obj.Properties, "description")
	}
	return nil
}

type upload struct {
	DatastreamID string `mapstructure:"dsid"`
	Label        string `mapstructure:"ds_label"`
	MimeType     string `mapstructure:"mime_type"`
	Content      string `mapstructure:"content"`
}

type uploadArgs struct {
	DatastreamID string   `mapstructure:"dsid"`
	MimeTypes    []string `mapstructure:"mime_types"`
}

func decodeUploadArgs(step domain.Step) (uploadArgs, error) {
	args := uploadArgs{DatastreamID: "OBJ"}
	if err := Decode(step.Args, &args); err != nil {
		return args, fmt.Errorf("invalid args for step %s: %w", step.Key(), err)
	}
	if len(args.MimeTypes) == 0 {
		args.MimeTypes = DefaultMimeTypes
	}
	return args, nil
}

func buildUpload(ctx context.Context, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error) {
	args, err := decodeUploadArgs(step)
	if err != nil {
		return nil, err
	}
	return &domain.Form{
		Fields: []domain.Field{
			{Name: "dsid", Type: domain.FieldHidden, Default: args.DatastreamID},
			{Name: "ds_label", Label: "Datastream label", Type: domain.FieldText},
			{Name: "mime_type", Label: "Content type", Type: domain.FieldSelect, Options: args.MimeTypes, Default: args.MimeTypes[0]},
			{Name: "content", Label: "Content", Type: domain.FieldFile, Required: true},
		},
		Values: map[string]any{
			"dsid":      args.DatastreamID,
			"mime_type": args.MimeTypes[0],
		},
	}, nil
}

func validateUpload(ctx context.Context, state *domain.WizardState, values map[string]any) (map[string]string, error) {
	errs := Required(values, "content")
	if mt, ok := values["mime_type"].(string); ok && mt != "" {
		// Accepted types come from the current step args.
		step := domain.Step{}
		if cur := state.Current(); cur != nil {
			step = *cur
		}
		args, err := decodeUploadArgs(step)
		if err != nil {
			return nil, err
		}
		allowed := false
		for _, m := range args.MimeTypes {
			if m == mt {
				allowed = true
				break
			}
		}
		if !allowed {
			errs["mime_type"] = fmt.Sprintf("%q is not an accepted content type", mt)
		}
	}
	return errs, nil
}

func submitUpload(ctx context.Context, state *domain.WizardState, values map[string]any) error {
	var in upload
	if err := Decode(values, &in); err != nil {
		return err
	}
	if in.DatastreamID == "" {
		in.DatastreamID = "OBJ"
	}
	if in.MimeType == "" {
		in.MimeType = DefaultMimeTypes[0]
	}
	obj, err := seedObject(state)
	if err != nil {
		return err
	}
	obj.SetDatastream(domain.Datastream{
		ID:       in.DatastreamID,
		Label:    in.Label,
		MimeType: in.MimeType,
		Content:  in.Content,
	})
	return nil
}
