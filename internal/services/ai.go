package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
)

// ResponseDrafter proposes a reply to a feedback item
type ResponseDrafter interface {
	DraftResponse(ctx context.Context, in DraftInput) (string, error)
}

// DraftInput is everything the model sees. Submitter identity is never included.
type DraftInput struct {
	Category string
	Subject  string
	Content  string
	Status   string
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model string) *AIService {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// DraftResponse asks the chat model for a polite staff reply
func (s *AIService) DraftResponse(ctx context.Context, in DraftInput) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	subject := in.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	prompt := fmt.Sprintf(`You help faculty staff answer feedback and complaints from students and employees.
Write a short, polite reply that acknowledges the issue and explains the next step.
Do not promise outcomes, deadlines or compensation. Do not invent facts.
Reply with the message text only.

Category: %s
Current status: %s
Subject: %s

Feedback:
%s`, in.Category, in.Status, subject, in.Content)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	draft := strings.TrimSpace(resp.Choices[0].Message.Content)
	if runes := []rune(draft); len(runes) > constants.MaxAIDraftLength {
		draft = string(runes[:constants.MaxAIDraftLength])
	}
	return draft, nil
}
