// Package forms implements ports.FormEngine with an explicit registration table.
//
// Each renderer id maps to a Handler with up to three functions: Build renders
// the form, Validate reports field errors and Submit applies the values to the
// wizard state. Nothing is discovered by name at runtime; a step whose renderer
// was never registered fails to render with domain.ErrRendererNotFound.
//
//	eng := forms.NewEngine()
//	forms.RegisterBuiltins(eng)
//	eng.MustRegister("rights", forms.Handler{Build: buildRights, Submit: applyRights})
package forms
