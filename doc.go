/*
Package ingest drives multi-step ingestion wizards that build repository objects.

A wizard is an ordered list of steps, each rendered as a form. The user moves
forward and back between steps; whatever was typed on a step is kept when
leaving it and restored on return. The last step offers an "Ingest" control
that hands every pending object to an object store.

# Architecture

The module follows a hexagonal layout:

  - pkg/domain holds the state, step and object types.
  - pkg/ports declares the collaborators: StepRegistry, FormEngine,
    ObjectStore, StateStore and DistributedLocker.
  - pkg/adapters provides memory, file, redis and loam implementations,
    plus the HTTP and MCP servers.
  - internal/runtime is the controller: sequencing, value persistence,
    rendering and finalization over an explicit *domain.WizardState.

The Wizard type in this package binds them per session: every call loads the
session under lock, runs the controller and saves the result.

# Usage

	w := ingest.New()

	ctx := context.Background()
	if _, err := w.Start(ctx, "session-1", domain.Configuration{Namespace: "demo"}); err != nil {
		log.Fatal(err)
	}

	step, err := w.Render(ctx, "session-1", domain.RenderContext{})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(step.Form.Title)

	res, err := w.Submit(ctx, "session-1", domain.ControlNext, map[string]any{"label": "Letters"})
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		// show verr.Fields next to the inputs and render again
	}

Calling Start again for an existing session returns it unchanged, so hosts may
call it on every request.

Custom steps register a renderer on a forms.Engine and contribute a
domain.Step through any StepRegistry:

	fe := forms.NewEngine()
	forms.RegisterBuiltins(fe)
	fe.MustRegister("rights", forms.Handler{Build: buildRights, Submit: saveRights})

	reg := memory.NewRegistry()
	reg.Register(memory.AnyModel, forms.BuiltinSteps()...)
	reg.Register("book", domain.Step{Renderer: "rights", Weight: 5})

	w := ingest.New(ingest.WithForms(fe), ingest.WithRegistry(reg))
*/
package ingest
