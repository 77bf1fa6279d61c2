package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

type TestClient struct {
	baseURL string
	client  *http.Client
	apply   bool
}

func NewTestClient(baseURL string, timeout time.Duration) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func main() {
	baseURL := flag.StringP("url", "u", "http://localhost:8080", "Base URL of the ClientLens server")
	testType := flag.StringP("test", "t", "all", "Test type: all, health, agent-card, personas, preparation, a2a-preparation, a2a-analysis")
	timeout := flag.Duration("timeout", 90*time.Second, "HTTP client timeout")
	apply := flag.Bool("apply", false, "Confirm the a2a analysis update (changes the persona store)")
	flag.Parse()

	client := NewTestClient(*baseURL, *timeout)
	client.apply = *apply

	printHeader("ClientLens - Smoke Tests")
	fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, client.baseURL, colorReset)

	tests := map[string]func() bool{
		"health":          client.testHealthCheck,
		"agent-card":      client.testAgentCard,
		"personas":        client.testPersonas,
		"preparation":     client.testPreparation,
		"a2a-preparation": client.testA2APreparation,
		"a2a-analysis":    client.testA2AAnalysis,
	}

	if *testType == "all" {
		client.runAllTests()
		return
	}
	fn, ok := tests[*testType]
	if !ok {
		printError(fmt.Sprintf("Unknown test type: %s", *testType))
		fmt.Println("\nAvailable tests: all, health, agent-card, personas, preparation, a2a-preparation, a2a-analysis")
		os.Exit(1)
	}
	if !fn() {
		os.Exit(1)
	}
}

func (tc *TestClient) runAllTests() {
	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"Personas", tc.testPersonas},
		{"Preparation", tc.testPreparation},
		{"A2A Preparation", tc.testA2APreparation},
		{"A2A Analysis", tc.testA2AAnalysis},
	}

	passed := 0
	failed := 0
	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// do sends a request and returns the body when the status matches want.
func (tc *TestClient) do(method, path string, payload any, want int) ([]byte, bool) {
	url := tc.baseURL + path
	fmt.Printf("%s %s\n", method, url)

	var body io.Reader
	if payload != nil {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			printError(fmt.Sprintf("Encoding request: %v", err))
			return nil, false
		}
		fmt.Printf("%sRequest:%s\n%s\n\n", colorYellow, colorReset, data)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		printError(fmt.Sprintf("Building request: %v", err))
		return nil, false
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return nil, false
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		printError(fmt.Sprintf("Expected status %d, got %d", want, resp.StatusCode))
		fmt.Printf("Response: %s\n", string(data))
		return data, false
	}
	return data, true
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	body, ok := tc.do(http.MethodGet, "/health", nil, http.StatusOK)
	if !ok {
		return false
	}
	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testAgentCard() bool {
	printTestHeader("Testing Agent Card Endpoint")

	body, ok := tc.do(http.MethodGet, "/.well-known/agent.json", nil, http.StatusOK)
	if !ok {
		return false
	}

	var agentCard map[string]any
	if err := json.Unmarshal(body, &agentCard); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	for _, field := range []string{"name", "description", "url", "version", "capabilities", "skills"} {
		if _, ok := agentCard[field]; !ok {
			printError(fmt.Sprintf("Missing required field: %s", field))
			return false
		}
	}

	printSuccess("Agent card is valid")
	printJSON(body)
	return true
}

func (tc *TestClient) testPersonas() bool {
	printTestHeader("Testing Persona Database")

	body, ok := tc.do(http.MethodGet, "/api/personas", nil, http.StatusOK)
	if !ok {
		return false
	}
	var personas []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Company string `json:"company"`
	}
	if err := json.Unmarshal(body, &personas); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if len(personas) == 0 {
		printError("Persona database is empty")
		return false
	}
	for _, p := range personas {
		fmt.Printf("  %s%s%s  %s - %s\n", colorPurple, p.ID, colorReset, p.Name, p.Company)
	}

	if _, ok := tc.do(http.MethodGet, "/api/personas/"+personas[0].ID, nil, http.StatusOK); !ok {
		return false
	}
	if _, ok := tc.do(http.MethodGet, "/api/personas/does-not-exist", nil, http.StatusNotFound); !ok {
		return false
	}

	printSuccess(fmt.Sprintf("Listed %d personas", len(personas)))
	return true
}

func (tc *TestClient) testPreparation() bool {
	printTestHeader("Testing Preparation Workflow (REST)")

	if _, ok := tc.do(http.MethodPost, "/api/preparations", map[string]string{"customerName": "Jane Doe"}, http.StatusBadRequest); !ok {
		printError("Blank company should be rejected")
		return false
	}

	body, ok := tc.do(http.MethodPost, "/api/preparations", map[string]string{
		"customerName":  "Jane Doe",
		"companyName":   "Acme Corp",
		"internalNotes": "Interested in Cloud Migration. Budget is tight.",
		"externalInfo":  "Acme Corp just raised Series B funding.",
	}, http.StatusCreated)
	if !ok {
		return false
	}

	var snap struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Result *struct {
			BackgroundSummary string `json:"backgroundSummary"`
			InterviewOutline  string `json:"interviewOutline"`
			SuggestedStrategy string `json:"suggestedStrategy"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if snap.State != "result" || snap.Result == nil {
		printError(fmt.Sprintf("Expected state 'result', got '%s'", snap.State))
		return false
	}

	printSuccess("Brief generated")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%sBackground:%s %s\n\n", colorGreen, colorReset, snap.Result.BackgroundSummary)
	fmt.Printf("%sOutline:%s\n%s\n\n", colorGreen, colorReset, snap.Result.InterviewOutline)
	fmt.Printf("%sStrategy:%s %s\n", colorGreen, colorReset, snap.Result.SuggestedStrategy)
	fmt.Println(strings.Repeat("=", 80))

	tc.do(http.MethodDelete, "/api/preparations/"+snap.ID, nil, http.StatusNoContent)
	return true
}

func (tc *TestClient) testA2APreparation() bool {
	printTestHeader("Testing A2A Preparation")

	result, ok := tc.sendA2A("", "customer name: Jane Doe\ncompany: Acme Corp\n"+
		"internal notes: Interested in Cloud Migration.\nexternal info: Raised Series B funding.")
	if !ok {
		return false
	}
	if !expectState(result, "completed") {
		return false
	}
	printSuccess("A2A preparation completed")
	printTaskText(result)
	return true
}

func (tc *TestClient) testA2AAnalysis() bool {
	printTestHeader("Testing A2A Analysis")

	result, ok := tc.sendA2A("", "customer id: 2\nnotes: Marcus confirmed a $500k project cap and needs a Q3 rollout.")
	if !ok {
		return false
	}
	if !expectState(result, "input-required") {
		return false
	}
	printTaskText(result)

	taskID, _ := result["id"].(string)
	reply, want := "discard", "canceled"
	if tc.apply {
		reply, want = "confirm", "completed"
	}
	fmt.Printf("\n%sReplying '%s' on task %s%s\n", colorCyan, reply, taskID, colorReset)

	result, ok = tc.sendA2A(taskID, reply)
	if !ok || !expectState(result, want) {
		return false
	}
	printSuccess("A2A analysis " + want)
	printTaskText(result)
	return true
}

func (tc *TestClient) sendA2A(taskID, text string) (map[string]any, bool) {
	message := map[string]any{
		"kind":      "message",
		"role":      "user",
		"messageId": uuid.NewString(),
		"parts":     []map[string]any{{"kind": "text", "text": text}},
	}
	if taskID != "" {
		message["taskId"] = taskID
	}
	request := map[string]any{
		"jsonrpc": "2.0",
		"id":      fmt.Sprintf("test-%d", time.Now().Unix()),
		"method":  "message/send",
		"params": map[string]any{
			"message": message,
			"configuration": map[string]any{
				"blocking":            true,
				"acceptedOutputModes": []string{"text", "data"},
			},
		},
	}

	body, ok := tc.do(http.MethodPost, "/a2a/clientlens", request, http.StatusOK)
	if !ok {
		return nil, false
	}

	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return nil, false
	}
	if errObj, ok := response["error"]; ok {
		printError("Request returned an error")
		errJSON, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Println(string(errJSON))
		return nil, false
	}
	result, ok := response["result"].(map[string]any)
	if !ok {
		printError("Invalid result format")
		return nil, false
	}
	return result, true
}

func expectState(result map[string]any, want string) bool {
	status, _ := result["status"].(map[string]any)
	state, _ := status["state"].(string)
	if state != want {
		printError(fmt.Sprintf("Expected state '%s', got '%s'", want, state))
		printTaskText(result)
		return false
	}
	return true
}

func printTaskText(result map[string]any) {
	status, _ := result["status"].(map[string]any)
	msg, _ := status["message"].(map[string]any)
	parts, _ := msg["parts"].([]any)

	fmt.Println(strings.Repeat("=", 80))
	for _, part := range parts {
		if p, ok := part.(map[string]any); ok {
			if text, ok := p["text"].(string); ok {
				fmt.Println(text)
			}
		}
	}
	fmt.Println(strings.Repeat("=", 80))

	if artifacts, ok := result["artifacts"].([]any); ok && len(artifacts) > 0 {
		fmt.Printf("\n%sArtifacts:%s %d\n", colorPurple, colorReset, len(artifacts))
	}
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
