// Package testutil provides a canned inference service for package tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/c360studio/chronicler/llm"
)

// Service replays canned JSON responses, one per CompleteJSON call, in
// order, and records the user prompt of every call. A response of "!"
// simulates a failed inference call; a response that is not valid JSON
// for the target shape simulates an unparseable model reply.
//
//	svc := &testutil.Service{Responses: []string{
//		`{"events": []}`,
//		"!",
//	}}
type Service struct {
	mu        sync.Mutex
	Responses []string
	Prompts   []string
}

// CompleteJSON satisfies the service interfaces of the extraction and merge
// packages.
func (s *Service) CompleteJSON(_ context.Context, req llm.Request, out any) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.Prompts)
	s.Prompts = append(s.Prompts, req.Messages[len(req.Messages)-1].Content)
	if call >= len(s.Responses) {
		return nil, fmt.Errorf("unexpected call %d", call+1)
	}

	raw := s.Responses[call]
	if raw == "!" {
		return nil, fmt.Errorf("inference service unavailable")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return nil, llm.NewFatalError(fmt.Errorf("unmarshal response JSON: %w", err))
	}
	return &llm.Response{Content: raw}, nil
}

// Calls reports how many times the service was invoked.
func (s *Service) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}
