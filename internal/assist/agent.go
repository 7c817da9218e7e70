// Package assist bundles the AI helpers: the community chat agent, the
// inspiration quote, and the email-driven status updater. Every feature
// degrades gracefully when the model is unavailable.
package assist

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"civicpulse_backend/platform/logger"
)

// DescriptionSource lists the newest report descriptions for grounding.
type DescriptionSource interface {
	RecentDescriptions(ctx context.Context, limit int) ([]string, error)
}

const (
	chatAppName        = "community_chat"
	recentReportsLimit = 10
)

// ChatAgent answers community questions with an ADK agent that can look up
// recent reports. Sessions are kept in memory so a client can continue a
// conversation by reusing its session ID.
type ChatAgent struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	log            *logger.Logger
}

// NewChatAgent builds the community chat agent around the given model.
func NewChatAgent(llm model.LLM, reports DescriptionSource, log *logger.Logger) (*ChatAgent, error) {
	tools, err := buildChatTools(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat tools: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "CommunityAssistant",
		Model:       llm,
		Description: "Assistant for a civic issue reporting community that answers questions about the app, reported issues, and local civic topics.",
		Instruction: chatSystemPrompt,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat agent: %w", err)
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        chatAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat runner: %w", err)
	}

	return &ChatAgent{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		log:            log,
	}, nil
}

// Chat sends one user message into the session and returns the agent's reply.
// The session is created on first use and kept so follow-up messages carry
// the conversation history.
func (a *ChatAgent) Chat(ctx context.Context, sessionID, message string) (string, error) {
	userID := "chat-" + sessionID

	if _, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   chatAppName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		// An existing session is fine, the runner picks up its history.
		a.log.Debug("chat session create", "sessionId", sessionID, "error", err)
	}

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: message}},
	}

	var output string
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("chat run failed: %w", err)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output += part.Text
			}
		}
	}

	return output, nil
}

type listRecentReportsInput struct {
	Limit int `json:"limit"`
}

type listRecentReportsOutput struct {
	Descriptions []string `json:"descriptions"`
}

func buildChatTools(reports DescriptionSource) ([]tool.Tool, error) {
	listTool, err := functiontool.New(functiontool.Config{
		Name:        "ListRecentReports",
		Description: "Lists descriptions of the most recently reported civic issues. Use this to ground answers about what is currently going on in the community. Limit defaults to 10.",
	}, func(ctx tool.Context, input listRecentReportsInput) (listRecentReportsOutput, error) {
		limit := input.Limit
		if limit <= 0 || limit > recentReportsLimit {
			limit = recentReportsLimit
		}
		descriptions, err := reports.RecentDescriptions(context.Background(), limit)
		if err != nil {
			return listRecentReportsOutput{}, fmt.Errorf("failed to list recent reports: %w", err)
		}
		return listRecentReportsOutput{Descriptions: descriptions}, nil
	})
	if err != nil {
		return nil, err
	}

	return []tool.Tool{listTool}, nil
}
