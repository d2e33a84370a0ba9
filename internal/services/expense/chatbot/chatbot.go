// Package chatbot answers questions about recorded expenses, either with a
// small rule set or by asking Gemini when an API key is available.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/pennywise/internal/platform/timeouts"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
)

// Mode reports which responder produced a reply.
type Mode string

const (
	ModeRules Mode = "rules"
	ModeLLM   Mode = "llm"
)

const emptyLLMReply = "I'm sorry, I couldn't generate a response. Please try again."

// ErrEmptyPrompt indicates a blank question.
var ErrEmptyPrompt = errors.New("prompt is required")

// ExpenseSource loads the expenses a reply may reference.
type ExpenseSource interface {
	ListAllExpenses(ctx context.Context) ([]domain.Expense, error)
}

// Request is one question to the assistant.
type Request struct {
	Prompt string
	// APIKey overrides the server key for this request.
	APIKey  string
	History []Message
}

// Response is the assistant's reply.
type Response struct {
	Text string
	Mode Mode
}

// Service picks a responder per request.
type Service struct {
	expenses  ExpenseSource
	llm       Generator
	serverKey string
}

// NewService builds a chatbot. llm may be nil, in which case every request
// uses the rule responder.
func NewService(expenses ExpenseSource, llm Generator, serverKey string) *Service {
	return &Service{
		expenses:  expenses,
		llm:       llm,
		serverKey: strings.TrimSpace(serverKey),
	}
}

// Respond answers req. The request key wins over the server key; with
// neither, the rule responder answers. Model failures are reported in the
// reply text rather than as an error.
func (s *Service) Respond(ctx context.Context, req Request) (Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Response{}, ErrEmptyPrompt
	}
	if s == nil || s.expenses == nil {
		return Response{}, fmt.Errorf("chatbot is not configured")
	}
	expenses, err := s.expenses.ListAllExpenses(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("load expenses: %w", err)
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = s.serverKey
	}
	if apiKey == "" || s.llm == nil {
		return Response{Text: RuleReply(prompt, expenses), Mode: ModeRules}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, timeouts.LLMRequest)
	defer cancel()
	text, err := s.llm.Generate(callCtx, apiKey, BuildPrompt(prompt, req.History, expenses))
	if err != nil {
		log.Printf("chatbot: llm request failed err=%v", err)
		return Response{Text: "An error occurred: " + err.Error(), Mode: ModeLLM}, nil
	}
	if strings.TrimSpace(text) == "" {
		return Response{Text: emptyLLMReply, Mode: ModeLLM}, nil
	}
	return Response{Text: text, Mode: ModeLLM}, nil
}
