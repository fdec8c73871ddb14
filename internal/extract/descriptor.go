package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/kbsync/internal/domain"
)

// ErrMalformedDescriptor is returned for a stack output that mentions agentId
// but does not decode, or for a descriptor that lists data sources without
// naming the knowledge base they belong to.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// Descriptor is one raw resource record published by the deployment stack.
// Field names follow the stack output JSON.
type Descriptor struct {
	AgentName       string   `json:"agentName,omitempty"`
	AgentID         string   `json:"agentId"`
	AgentAliasID    string   `json:"agentAliasId,omitempty"`
	KnowledgeBaseID string   `json:"knowledgeBaseId,omitempty"`
	DataSourceIDs   []string `json:"DataSourceId,omitempty"`
}

// HasKnowledgeBase reports whether the descriptor carries ingestion targets.
func (d Descriptor) HasKnowledgeBase() bool {
	return d.KnowledgeBaseID != "" || len(d.DataSourceIDs) > 0
}

// AgentRef identifies a deployed agent alias.
type AgentRef struct {
	AgentID      string `json:"agentId"`
	AgentAliasID string `json:"agentAliasId"`
}

// ParseOutputs decodes the stack output values that describe agents.
// Values that are not JSON objects with an agentId key are ignored, unless
// they mention agentId without being valid JSON.
// Parameters:
//   - values: raw output values in stack order.
//
// Returns:
//   - []Descriptor: decoded descriptors in input order.
//   - error: ErrMalformedDescriptor if a value mentions agentId but is not a valid descriptor.
func ParseOutputs(values []string) ([]Descriptor, error) {
	var descriptors []Descriptor
	for i, value := range values {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			if strings.Contains(value, "agentId") {
				return nil, fmt.Errorf("%w: output %d: %v", ErrMalformedDescriptor, i, err)
			}
			continue
		}
		if _, ok := fields["agentId"]; !ok {
			continue
		}

		var d Descriptor
		if err := json.Unmarshal([]byte(value), &d); err != nil {
			return nil, fmt.Errorf("%w: output %d: %v", ErrMalformedDescriptor, i, err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Specs turns descriptors into job specs, preserving order.
// Agent-only descriptors produce no spec. A knowledge base with an empty
// data source list still yields a spec so that the orchestrator rejects it
// as a configuration error instead of silently skipping it.
// Parameters:
//   - descriptors: decoded descriptors.
//
// Returns:
//   - []domain.JobSpec: one spec per descriptor with a knowledge base.
//   - error: ErrMalformedDescriptor for data sources without a knowledge base ID.
func Specs(descriptors []Descriptor) ([]domain.JobSpec, error) {
	specs := make([]domain.JobSpec, 0, len(descriptors))
	for i, d := range descriptors {
		if !d.HasKnowledgeBase() {
			continue
		}
		if d.KnowledgeBaseID == "" {
			return nil, fmt.Errorf("%w: descriptor %d (agent %q) lists data sources without knowledgeBaseId",
				ErrMalformedDescriptor, i, d.AgentID)
		}

		subSources := make([]string, len(d.DataSourceIDs))
		copy(subSources, d.DataSourceIDs)
		specs = append(specs, domain.JobSpec{
			GroupID:      d.KnowledgeBaseID,
			SubSourceIDs: subSources,
		})
	}
	return specs, nil
}

// AgentRefs lists the agent and alias IDs of every descriptor.
func AgentRefs(descriptors []Descriptor) []AgentRef {
	refs := make([]AgentRef, 0, len(descriptors))
	for _, d := range descriptors {
		refs = append(refs, AgentRef{AgentID: d.AgentID, AgentAliasID: d.AgentAliasID})
	}
	return refs
}
