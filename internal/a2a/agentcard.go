package a2a

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed agent.json
var agentCardData []byte

// AgentCard returns the agent card with its url pointed at baseURL, when set.
func AgentCard(baseURL string) ([]byte, error) {
	if baseURL == "" {
		return agentCardData, nil
	}
	var card map[string]any
	if err := json.Unmarshal(agentCardData, &card); err != nil {
		return nil, fmt.Errorf("decoding agent card: %w", err)
	}
	card["url"] = baseURL + "/a2a/clientlens"
	return json.Marshal(card)
}
