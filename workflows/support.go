package workflows

import (
	"fmt"

	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/structured"
)

// Support stage names.
const (
	StageClassify = "classify"
	StageResponse = "response"
	StageActions  = "actions"
)

// ClassificationSchema is the structured triage of a support email.
var ClassificationSchema = structured.Fields(
	structured.OneOf("category", "bug", "feature", "question", "billing", "account", "technical", "other"),
	structured.Required("subcategory", structured.String),
	structured.OneOf("priority", "critical", "high", "medium", "low"),
	structured.OneOf("sentiment", "frustrated", "neutral", "positive"),
	structured.Required("product_area", structured.String),
	structured.Required("requires_technical_team", structured.Boolean),
	structured.Required("estimated_resolution_time", structured.String),
	structured.Required("key_points", structured.StringList),
	structured.Required("customer_request", structured.String),
)

// Support classifies a customer email, drafts a reply, and suggests
// internal follow-up.
func Support() *Workflow {
	return &Workflow{
		Name:        "support",
		Title:       "Support Email Classifier",
		Description: "Classify a support email and draft a response",
		Usage:       "<email-file|->",
		MinArgs:     1,
		MaxArgs:     1,
		Input:       fromReference,
		Build:       supportStages,
		Titles: map[string]string{
			StageClassify: "Email Classification",
			StageResponse: "Drafting Response",
			StageActions:  "Internal Action Items",
		},
		Status:  SupportStatus,
		Footer:  []string{"Draft response and action items generated above."},
		Preview: 500,
	}
}

// SupportStatus reports the ticket category, priority, and sentiment.
func SupportStatus(run *pipeline.Run) []report.Field {
	return []report.Field{
		{Label: "Category", Value: report.Upper(run, StageClassify, "category")},
		{Label: "Priority", Value: report.Upper(run, StageClassify, "priority")},
		{Label: "Sentiment", Value: value(run, StageClassify, "sentiment", "unknown")},
	}
}

func supportStages(opts Options) []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.NewStructuredStage(stageConfig(opts, StageClassify, nil, func(in pipeline.Input, _ pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 1000, fmt.Sprintf(classifyPrompt, in.Text())), nil
		}), ClassificationSchema),
		streamStage(opts, StageResponse, []string{StageClassify}, func(in pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			c := deps.Record(StageClassify)
			return request(opts, 1500, fmt.Sprintf(responsePrompt,
				in.Text(), c.String("category"), c.String("priority"), c.String("sentiment"), c.String("customer_request"),
			)), nil
		}),
		textStage(opts, StageActions, []string{StageClassify}, func(_ pipeline.Input, deps pipeline.Deps) (llm.CompletionRequest, error) {
			return request(opts, 1000, fmt.Sprintf(actionsPrompt, deps.Record(StageClassify).JSON())), nil
		}),
	}
}

const classifyPrompt = `Analyze this support email and classify it:

EMAIL CONTENT:
%s

Provide a JSON response with the following structure:
{
  "category": "bug|feature|question|billing|account|technical|other",
  "subcategory": "more specific classification",
  "priority": "critical|high|medium|low",
  "sentiment": "frustrated|neutral|positive",
  "product_area": "which part of the product this relates to",
  "requires_technical_team": true/false,
  "estimated_resolution_time": "immediate|< 1 hour|< 1 day|< 1 week|requires investigation",
  "key_points": ["list", "of", "main", "points"],
  "customer_request": "concise summary of what they want"
}

Only output valid JSON, no other text.`

const responsePrompt = `Draft a professional support response to this email:

ORIGINAL EMAIL:
%s

CLASSIFICATION:
- Category: %s
- Priority: %s
- Sentiment: %s
- Customer Request: %s

Draft a response that:
1. Acknowledges their issue with empathy (especially if frustrated)
2. Addresses their specific concern
3. Provides clear next steps or solutions
4. Sets appropriate expectations for resolution time
5. Maintains a professional, helpful tone
6. Is concise but complete (200-300 words)

If this is a bug report, acknowledge it and explain the escalation process.
If this is a feature request, thank them and explain how you track requests.
If this is a billing issue, provide clear steps or escalation.
If this is a question, answer directly and offer additional help.

Write the response email now:`

const actionsPrompt = `Based on this support ticket classification, suggest internal actions:

CLASSIFICATION:
%s

Provide:
1. **Recommended Assignment**: Which team/person should handle this
2. **Priority Justification**: Why this priority level is appropriate
3. **Action Items**: Specific steps the assigned person should take
4. **Follow-up Timeline**: When to check back with the customer
5. **Related Issues**: Potential connections to other tickets or known issues
6. **Escalation Triggers**: What would require escalating this ticket

Keep it concise and actionable.`
