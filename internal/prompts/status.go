package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt asks the host to survey the connected NocoBase instance.
type StatusPrompt struct{}

func NewStatusPrompt() *StatusPrompt { return &StatusPrompt{} }

func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("nb-status",
		mcp.WithPromptDescription(
			"Survey the connected NocoBase instance: collections, pages, "+
				"workflows, and AI employees.",
		),
	)
}

func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "NocoBase instance overview",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Give me an overview of the connected NocoBase instance:\n\n" +
						"1. Run nb_list_collections and group the collections by prefix\n" +
						"2. Run nb_list_pages and show the navigation structure\n" +
						"3. Run nb_list_workflows and flag any that are disabled\n" +
						"4. Run nb_list_ai_employees\n\n" +
						"Then summarize what the instance appears to be used for and " +
						"point out anything incomplete (pages without blocks, disabled " +
						"workflows, collections without pages).",
				),
			},
		},
	}, nil
}
