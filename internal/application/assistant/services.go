package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
	"github.com/bryanwahyu/automaton-health/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-health/internal/metrics"
)

var ErrEmptyQuestion = errors.New("question is required")

// maxQuestionLen keeps prompts small; longer questions are cut.
const maxQuestionLen = 2000

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

// Ask answers a free-form health question with one completion call.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	if r := []rune(q); len(r) > maxQuestionLen {
		q = string(r[:maxQuestionLen])
	}

	answer, err := s.client.Generate(ctx, []ai.Part{
		ai.Text(prompt.AssistantInstruction()),
		ai.Text(prompt.Question(q)),
	})
	metrics.ObserveCompletion("assistant", err)
	if err != nil {
		return "", fmt.Errorf("ask assistant: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
