// Package workflows holds the built-in pipelines.
//
// Each Workflow pairs a stage list with the way its input is acquired
// and the status fields printed when it finishes:
//
//	codereview   analysis → bugs, security, performance → summary
//	quickreview  review (git diff --staged or a commit)
//	content      outline → draft (streamed) → seo, social
//	support      classify → response (streamed), actions
//	competitor   extract → compare (streamed) → swot (streamed) → positioning
//	prioritize   rice (features JSON)
//	onboarding   email (user JSON)
//
// Builtin returns a Registry with all of them.
package workflows
