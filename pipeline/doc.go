// Package pipeline runs ordered lists of LLM-backed stages.
//
// A [Stage] declares a name, the earlier stages it depends on, and an
// output [Kind]: free text, a schema-validated structured record, or text
// assembled from a stream. The [Runner] executes stages strictly in the
// declared order, hands each stage only the results it declared, records
// each result once in the run's [State], and stops at the first failure.
//
//	stages := []pipeline.Stage{
//	    pipeline.NewStructuredStage(pipeline.StageConfig{
//	        Name: "analysis", Prompt: analysisPrompt, Client: client,
//	    }, analysisSchema),
//	    pipeline.NewTextStage(pipeline.StageConfig{
//	        Name: "summary", DependsOn: []string{"analysis"},
//	        Prompt: summaryPrompt, Client: client,
//	    }),
//	}
//	run := pipeline.NewRunner(pipeline.WithName("review")).Run(ctx, stages, input)
//	if !run.Succeeded() {
//	    return run.Err
//	}
//
// Ordering is checked before anything runs: a dependency that is declared
// later, or not at all, fails the run with MISSING_DEPENDENCY and no stage
// executes.
//
// Pipelines can also be declared in YAML; see [Definition].
package pipeline
