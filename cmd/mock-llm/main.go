// Package main implements a mock inference server for offline pipeline runs.
// It serves OpenAI-compatible /v1/chat/completions responses from JSON fixture
// files, routing first by the "model" field and then by pipeline stage
// recognized from the prompt. This lets the full extract/review flow run
// fast, deterministic, and offline.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//
// Fixture files are JSON named by model or stage: "extract-events.json"
// answers extraction prompts, "complete-entities.json" completion prompts,
// and "merge-arbitration.json" merge prompts, unless a fixture matching the
// requested model name exists.
//
// Sequential fixtures: if numbered files exist (e.g. "extract-events.1.json",
// "extract-events.2.json"), the Nth call returns the Nth fixture. After the
// numbered fixtures are exhausted, the base file repeats. Multi-chunk
// chapters are exercised this way.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Server ---

// capturedRequest stores the key fields of an incoming request for test verification.
type capturedRequest struct {
	Model     string        `json:"model"`
	Stage     string        `json:"stage"`
	Messages  []chatMessage `json:"messages"`
	CallIndex int           `json:"call_index"` // 1-indexed per-key call number
	Timestamp int64         `json:"timestamp"`
}

type server struct {
	fixtures map[string][]string // fixture key → ordered fixture contents
	calls    atomic.Int64        // total calls served

	// Per-key call counters for sequential fixture selection.
	keyCalls   map[string]*atomic.Int64
	keyCallsMu sync.Mutex // protects lazy init of keyCalls entries

	// Per-key request capture for prompt verification.
	keyRequests   map[string][]capturedRequest
	keyRequestsMu sync.Mutex
}

func newServer(fixtures map[string][]string) *server {
	return &server{
		fixtures:    fixtures,
		keyCalls:    make(map[string]*atomic.Int64),
		keyRequests: make(map[string][]capturedRequest),
	}
}

// stageMarkers map prompt substrings to pipeline stage fixture keys. The
// markers come from the fixed prompt templates, so recognition is exact.
var stageMarkers = []struct {
	marker string
	stage  string
}{
	{"是否指同一个历史人物", "merge-arbitration"},
	{"是否指同一个历史地点", "merge-arbitration"},
	{"补全详细信息", "complete-entities"},
	{"提取重要历史事件", "extract-events"},
}

// classifyStage recognizes which pipeline stage a request came from by its
// prompt content. Unrecognized prompts return "".
func classifyStage(req chatRequest) string {
	for _, msg := range req.Messages {
		for _, sm := range stageMarkers {
			if strings.Contains(msg.Content, sm.marker) {
				return sm.stage
			}
		}
	}
	return ""
}

// captureRequest stores a request for later retrieval via /requests.
func (s *server) captureRequest(key, stage string, req chatRequest, callIndex int) {
	s.keyRequestsMu.Lock()
	defer s.keyRequestsMu.Unlock()
	s.keyRequests[key] = append(s.keyRequests[key], capturedRequest{
		Model:     req.Model,
		Stage:     stage,
		Messages:  req.Messages,
		CallIndex: callIndex,
		Timestamp: time.Now().UnixMilli(),
	})
}

// getCounter returns the call counter for a fixture key, creating it lazily.
func (s *server) getCounter(key string) *atomic.Int64 {
	s.keyCallsMu.Lock()
	defer s.keyCallsMu.Unlock()
	if c, ok := s.keyCalls[key]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.keyCalls[key] = c
	return c
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture response files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	// Allow env var override
	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d fixture key(s) from %s", len(fixtures), *fixtureDir)
	for key, seq := range fixtures {
		log.Printf("  key: %s (%d fixture(s))", key, len(seq))
	}

	s := newServer(fixtures)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/models", s.handleModels)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock inference server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// resolveFixture picks the fixture sequence for a request: exact model name
// first, then the model name without a "mock-" prefix, then the pipeline
// stage recognized from the prompt.
func (s *server) resolveFixture(req chatRequest) (key string, seq []string, ok bool) {
	if seq, ok = s.fixtures[req.Model]; ok {
		return req.Model, seq, true
	}
	stripped := strings.TrimPrefix(req.Model, "mock-")
	if seq, ok = s.fixtures[stripped]; ok {
		return stripped, seq, true
	}
	if stage := classifyStage(req); stage != "" {
		if seq, ok = s.fixtures[stage]; ok {
			return stage, seq, true
		}
	}
	return "", nil, false
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	stage := classifyStage(req)
	log.Printf("[call %d] model=%s stage=%s messages=%d", callNum, req.Model, stage, len(req.Messages))

	key, seq, ok := s.resolveFixture(req)
	if !ok {
		log.Printf("[call %d] WARNING: no fixture for model=%q stage=%q", callNum, req.Model, stage)
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	// Select fixture from sequence based on per-key call count
	counter := s.getCounter(key)
	callIndex := int(counter.Add(1) - 1) // 0-indexed

	s.captureRequest(key, stage, req, callIndex+1)
	var content string
	if callIndex < len(seq) {
		content = seq[callIndex]
	} else {
		content = seq[len(seq)-1] // repeat last fixture
	}

	log.Printf("[call %d] key=%s call_index=%d/%d", callNum, key, callIndex+1, len(seq))

	// Wrap in OpenAI response envelope
	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	log.Printf("[call %d] responded with %d bytes for key=%s", callNum, len(content), key)
}

// handleModels returns the list of available fixture keys as models.
func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	var models []modelEntry
	for name := range s.fixtures {
		models = append(models, modelEntry{
			ID:      name,
			Object:  "model",
			OwnedBy: "mock-llm",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   models,
	})
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.keyCallsMu.Lock()
	callsByKey := make(map[string]int64, len(s.keyCalls))
	for key, counter := range s.keyCalls {
		callsByKey[key] = counter.Load()
	}
	s.keyCallsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":  s.calls.Load(),
		"calls_by_key": callsByKey,
	})
}

// handleRequests returns captured request bodies for test assertions.
// Query params:
//   - key: filter by fixture key (optional, returns all keys if omitted)
//   - call: filter by call index, 1-indexed (optional)
//
// Returns {"requests_by_key": {"extract-events": [...], ...}}
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	keyFilter := r.URL.Query().Get("key")
	callFilter := r.URL.Query().Get("call")

	s.keyRequestsMu.Lock()
	result := make(map[string][]capturedRequest)
	for key, reqs := range s.keyRequests {
		if keyFilter != "" && key != keyFilter {
			continue
		}
		if callFilter != "" {
			callIdx, err := strconv.Atoi(callFilter)
			if err == nil {
				for _, req := range reqs {
					if req.CallIndex == callIdx {
						result[key] = append(result[key], req)
					}
				}
				continue
			}
		}
		result[key] = reqs
	}
	s.keyRequestsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"requests_by_key": result,
	})
}

// numberedFileRe matches files like "extract-events.1.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.json$`)

// loadFixtures reads JSON files from dir and returns a map of key→content
// sequence.
//
// For each key, fixtures are ordered:
//  1. Numbered files (key.1.json, key.2.json, ...) in numeric order
//  2. Base file (key.json) appended as the final fallback
func loadFixtures(dir string) (map[string][]string, error) {
	baseFiles := make(map[string]string)             // key → content
	numberedFiles := make(map[string]map[int]string) // key → {index → content}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON in %s", path)
		}

		content := string(data)

		// Check for numbered pattern: key.N.json
		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			key := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[key] == nil {
				numberedFiles[key] = make(map[int]string)
			}
			numberedFiles[key][index] = content
			return nil
		}

		// Base file: key.json
		key := strings.TrimSuffix(info.Name(), ".json")
		baseFiles[key] = content
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Build ordered sequences
	fixtures := make(map[string][]string)

	allKeys := make(map[string]bool)
	for k := range baseFiles {
		allKeys[k] = true
	}
	for k := range numberedFiles {
		allKeys[k] = true
	}

	for key := range allKeys {
		var seq []string

		if numbered, ok := numberedFiles[key]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)

			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}

		if base, ok := baseFiles[key]; ok {
			seq = append(seq, base)
		}

		if len(seq) > 0 {
			fixtures[key] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}

	return fixtures, nil
}
