package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityExtraction: {
				Preferred: []string{"model-a", "model-b"},
				Fallback:  []string{"model-c"},
			},
		},
		map[string]*EndpointConfig{
			"model-a": {Provider: "anthropic", Model: "model-a"},
		},
	)

	assert.Equal(t, "model-a", r.Resolve(CapabilityExtraction))
	// Unknown capability falls back to the default model
	assert.Equal(t, "default", r.Resolve(CapabilityArbitration))
}

func TestRegistry_GetFallbackChain(t *testing.T) {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityArbitration: {
				Preferred: []string{"primary"},
				Fallback:  []string{"backup-1", "backup-2"},
			},
		},
		nil,
	)

	chain := r.GetFallbackChain(CapabilityArbitration)
	assert.Equal(t, []string{"primary", "backup-1", "backup-2"}, chain)

	// Unknown capability yields only the default model
	chain = r.GetFallbackChain(CapabilityFast)
	assert.Equal(t, []string{"default"}, chain)
}

func TestRegistry_ForStage(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, r.Resolve(CapabilityExtraction), r.ForStage("extract-events"))
	assert.Equal(t, r.Resolve(CapabilityArbitration), r.ForStage("merge-arbitration"))
	// Unknown stage defaults to the fast capability
	assert.Equal(t, r.Resolve(CapabilityFast), r.ForStage("unknown-stage"))
}

func TestRegistry_DefaultRegistryEndpoints(t *testing.T) {
	r := NewDefaultRegistry()

	for _, cap := range r.ListCapabilities() {
		chain := r.GetFallbackChain(cap)
		require.NotEmpty(t, chain, "capability %s has empty chain", cap)
		for _, name := range chain {
			assert.NotNil(t, r.GetEndpoint(name), "model %s has no endpoint", name)
		}
	}
}

func TestRegistry_JSONRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded Registry
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, r.Resolve(CapabilityExtraction), decoded.Resolve(CapabilityExtraction))
	assert.ElementsMatch(t, r.ListEndpoints(), decoded.ListEndpoints())
}

func TestLoadFromJSON_FullConfig(t *testing.T) {
	data := []byte(`{
		"model_registry": {
			"capabilities": {
				"extraction": {"preferred": ["m1"], "fallback": ["m2"]}
			},
			"endpoints": {
				"m1": {"provider": "openai", "model": "gpt-4o-mini"},
				"m2": {"provider": "ollama", "url": "http://localhost:11434/v1", "model": "qwen2.5:14b"}
			},
			"defaults": {"model": "m2"}
		}
	}`)

	r, err := LoadFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "m1", r.Resolve(CapabilityExtraction))
	assert.Equal(t, "m2", r.Resolve(CapabilityFast))
	ep := r.GetEndpoint("m1")
	require.NotNil(t, ep)
	assert.Equal(t, "openai", ep.Provider)
}

func TestParseCapability(t *testing.T) {
	assert.Equal(t, CapabilityExtraction, ParseCapability("extraction"))
	assert.Equal(t, Capability(""), ParseCapability("planning"))
}
