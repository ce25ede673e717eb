/*
Package runner drives an ingestion wizard from a terminal or a pipe.

The Runner owns the loop: render the current step, show it, collect values
and a control through a Prompter, submit, repeat until the wizard is
finalized. Field errors of a rejected submission are shown on the next pass.

# Prompters

  - SurveyPrompter asks field by field with interactive prompts.
  - TextPrompter reads one line per field, for scripts and tests.
  - JSONPrompter exchanges one JSON document per line with a host program.

NewPrompter picks SurveyPrompter when stdin is a terminal and TextPrompter
otherwise.

# Usage

	w := ingest.New()
	r := runner.NewRunner(runner.WithPrompter(runner.NewPrompter(os.Stdin, os.Stdout)))

	res, err := r.Run(ctx, w, "session-1", domain.Configuration{Namespace: "demo"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Redirect)
*/
package runner
