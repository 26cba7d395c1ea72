package pipeline

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Def is the declarative form of a pipeline graph. It carries everything that
// can be expressed as data; capability invocations and validators are bound at
// build time through a Registry. Defs round-trip through YAML.
type Def struct {
	Pipeline    string     `yaml:"pipeline"`
	Description string     `yaml:"description,omitempty"`
	Stages      []StageDef `yaml:"stages"`
	Edges       []EdgeDef  `yaml:"edges"`
	Entry       string     `yaml:"entry"`
	Exclusive   []string   `yaml:"exclusive,omitempty"`
}

// StageDef declares a stage in the pipeline.
type StageDef struct {
	ID                   string   `yaml:"id"`
	Inputs               []string `yaml:"inputs,omitempty"`
	Outputs              []string `yaml:"outputs,omitempty"`
	Kind                 string   `yaml:"kind,omitempty"`
	Mandatory            bool     `yaml:"mandatory,omitempty"`
	Fallback             string   `yaml:"fallback,omitempty"`
	MaxRetries           int      `yaml:"max_retries,omitempty"`
	RetryBackoffMs       int      `yaml:"retry_backoff_ms,omitempty"`
	MaxValidationRetries int      `yaml:"max_validation_retries,omitempty"`
	TimeoutSeconds       int      `yaml:"timeout_seconds,omitempty"`
}

// EdgeDef declares a conditional edge between two stages. An empty when is
// the default edge.
type EdgeDef struct {
	ID   string `yaml:"id"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when,omitempty"`
}

// Binding supplies the non-declarative parts of one stage.
type Binding struct {
	Invoke    InvokeFunc
	Validator Validator
	Repairer  Repairer
	Merge     func(s *State, a Artifact) error
}

// Registry maps stage ids to their bindings.
type Registry map[string]Binding

// LoadDef parses a YAML pipeline definition.
func LoadDef(data []byte) (*Def, error) {
	var def Def
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse pipeline YAML: %w", err)
	}
	return &def, nil
}

// MarshalYAML serializes a Def back to YAML.
func (d *Def) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks referential integrity of the definition:
//   - pipeline name and entry are set, entry exists in the stage list
//   - at least one stage exists
//   - edge From/To reference existing stages (or the done pseudo-stage)
//   - exclusive entries reference existing stages
func (d *Def) Validate() error {
	if d.Pipeline == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}
	ids := make(map[string]bool, len(d.Stages))
	for _, s := range d.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage with empty id")
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate stage id %q", s.ID)
		}
		ids[s.ID] = true
	}
	if d.Entry == "" {
		return fmt.Errorf("entry stage is required")
	}
	if !ids[d.Entry] {
		return fmt.Errorf("entry stage %q not declared", d.Entry)
	}
	for _, e := range d.Edges {
		if !ids[e.From] {
			return fmt.Errorf("edge %s: unknown source %q", e.ID, e.From)
		}
		if e.To != DoneStage && !ids[e.To] {
			return fmt.Errorf("edge %s: unknown target %q", e.ID, e.To)
		}
	}
	for _, x := range d.Exclusive {
		if !ids[x] {
			return fmt.Errorf("exclusive entry %q not declared", x)
		}
	}
	return nil
}

// Build binds the definition to a Registry and constructs the executable
// Graph. Every declared stage must have a binding with an Invoke function.
func (d *Def) Build(reg Registry) (*Graph, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", d.Pipeline, err)
	}

	stages := make([]*Stage, 0, len(d.Stages))
	for _, sd := range d.Stages {
		b, ok := reg[sd.ID]
		if !ok || b.Invoke == nil {
			return nil, fmt.Errorf("pipeline %s: no binding for stage %q", d.Pipeline, sd.ID)
		}
		stages = append(stages, &Stage{
			ID:                   sd.ID,
			RequiredInputs:       sd.Inputs,
			ProducedOutputs:      sd.Outputs,
			Invoke:               b.Invoke,
			Validator:            b.Validator,
			Repairer:             b.Repairer,
			Merge:                b.Merge,
			Kind:                 ArtifactKind(sd.Kind),
			Mandatory:            sd.Mandatory,
			Fallback:             sd.Fallback,
			MaxRetries:           sd.MaxRetries,
			RetryBackoff:         time.Duration(sd.RetryBackoffMs) * time.Millisecond,
			MaxValidationRetries: sd.MaxValidationRetries,
			Timeout:              time.Duration(sd.TimeoutSeconds) * time.Second,
		})
	}

	edges := make([]Edge, 0, len(d.Edges))
	for _, ed := range d.Edges {
		edges = append(edges, Edge{ID: ed.ID, From: ed.From, To: ed.To, When: ed.When})
	}

	return NewGraph(d.Pipeline, d.Entry, stages, edges, WithExclusiveEdges(d.Exclusive...))
}
