package guardrails

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragshield/ragshield/llm"
)

// classifyYesNo runs a strict binary classification prompt and returns
// true for YES, false for NO. Any other reply is an error so callers can
// apply their own failure policy.
func classifyYesNo(ctx context.Context, chat llm.Provider, promptFmt string, args ...any) (bool, error) {
	req := &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(promptFmt, args...)},
		},
		Temperature: 0,
		MaxTokens:   3,
	}

	resp, err := chat.Completion(ctx, req)
	if err != nil {
		return false, err
	}

	verdict := strings.ToUpper(strings.TrimSpace(strings.Trim(resp.FirstContent(), ".!")))
	switch {
	case strings.HasPrefix(verdict, "YES"):
		return true, nil
	case strings.HasPrefix(verdict, "NO"):
		return false, nil
	default:
		return false, fmt.Errorf("guardrails: classifier returned %q, want YES or NO", resp.FirstContent())
	}
}
