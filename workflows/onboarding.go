package workflows

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/source"
)

// StageEmail is the single onboarding stage.
const StageEmail = "email"

// SignupRecord is the JSON input of the onboarding workflow.
type SignupRecord struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Plan    string `json:"plan"`
	Source  string `json:"source"`
}

// Onboarding writes a personalized onboarding email for a new signup.
func Onboarding() *Workflow {
	return &Workflow{
		Name:        "onboarding",
		Title:       "Generated Onboarding Email",
		Description: "Write a personalized onboarding email from a JSON user record",
		Usage:       "<user.json>",
		MinArgs:     1,
		MaxArgs:     1,
		Input:       signupInput,
		Build:       onboardingStages,
		Titles:      map[string]string{StageEmail: "Onboarding Email"},
	}
}

func signupInput(ctx context.Context, src *source.Loader, args []string) (pipeline.Input, error) {
	doc, err := src.Load(ctx, args[0])
	if err != nil {
		return pipeline.Input{}, err
	}
	var user SignupRecord
	if err := doc.Decode(&user); err != nil {
		return pipeline.Input{}, err
	}
	if user.Name == "" {
		return pipeline.Input{}, apperrors.FetchFailed(doc.Source, errors.New("user record has no name"))
	}
	return pipeline.NewInput(doc.Text, doc.Source, map[string]string{
		"name":    user.Name,
		"company": orDefault(user.Company, "Not provided"),
		"role":    orDefault(user.Role, "Not provided"),
		"plan":    orDefault(user.Plan, "free"),
		"source":  orDefault(user.Source, "direct"),
	}), nil
}

func onboardingStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		textStage(opts, StageEmail, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 1024, fmt.Sprintf(onboardingPrompt,
				in.Param("name"), in.Param("company"), in.Param("role"), in.Param("plan"), in.Param("source"))), nil
		}),
	}
}

const onboardingPrompt = `You are a SaaS email copywriter. Generate a personalized onboarding email.

User data:
- Name: %s
- Company: %s
- Role: %s
- Plan: %s
- Signup source: %s

Email requirements:
1. Subject line (under 50 chars)
2. Personalized greeting
3. Quick win: One action they can take in under 60 seconds
4. Value reminder: Why they signed up
5. Next steps: 2-3 specific actions with links
6. CTA: Schedule onboarding call (if paid plan)

Tone: Friendly, helpful, not salesy. Format as plain text email.`
