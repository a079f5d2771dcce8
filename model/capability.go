// Package model provides capability-based model selection for inference calls.
// Instead of hardcoding model names, pipeline stages specify capabilities
// (extraction, completion, arbitration) and the registry resolves them to
// available models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "claude-sonnet", pipeline stages specify
// "extraction" or "arbitration".
type Capability string

const (
	// CapabilityExtraction is for structured event extraction from chapter text.
	CapabilityExtraction Capability = "extraction"

	// CapabilityCompletion is for backfilling person/place detail records.
	CapabilityCompletion Capability = "completion"

	// CapabilityArbitration is for same-entity merge judgment.
	CapabilityArbitration Capability = "arbitration"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// StageCapabilities maps pipeline stages to their default capability.
// Used when no explicit capability or model is specified.
var StageCapabilities = map[string]Capability{
	"extract-events":    CapabilityExtraction,
	"complete-entities": CapabilityCompletion,
	"merge-arbitration": CapabilityArbitration,
}

// CapabilityForStage returns the default capability for a pipeline stage.
// Returns CapabilityFast as fallback for unknown stages.
func CapabilityForStage(stage string) Capability {
	if cap, ok := StageCapabilities[stage]; ok {
		return cap
	}
	return CapabilityFast
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityExtraction, CapabilityCompletion, CapabilityArbitration, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
