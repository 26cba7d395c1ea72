package pipeline

import "fmt"

// DoneStage is the terminal pseudo-stage name. An edge targeting it completes
// the run; a stage with no outgoing edges terminates the run as well.
const DoneStage = "_done"

// Graph is a directed graph of Stages connected by conditional Edges. It
// stores stages and edges in maps for O(1) lookup while preserving edge
// declaration order for deterministic first-match evaluation.
type Graph struct {
	name       string
	stages     []*Stage
	edges      []Edge
	stageIndex map[string]*Stage
	edgeIndex  map[string][]Edge // from-stage -> edges in declaration order
	exclusive  map[string]bool   // stages whose edge predicates must be mutually exclusive
	entry      string
}

// GraphOption configures a Graph during construction.
type GraphOption func(*Graph)

// WithExclusiveEdges declares that the named stages' outgoing predicates are
// mutually exclusive: the router fails with ErrRoutingAmbiguity if more than
// one matches.
func WithExclusiveEdges(stageIDs ...string) GraphOption {
	return func(g *Graph) {
		for _, id := range stageIDs {
			g.exclusive[id] = true
		}
	}
}

// NewGraph constructs a Graph and checks referential integrity: every edge
// endpoint must exist (or be the done pseudo-stage), every predicate must
// compile, and no edge may be declared after a stage's default edge.
func NewGraph(name, entry string, stages []*Stage, edges []Edge, opts ...GraphOption) (*Graph, error) {
	g := &Graph{
		name:       name,
		stages:     stages,
		edges:      edges,
		stageIndex: make(map[string]*Stage, len(stages)),
		edgeIndex:  make(map[string][]Edge),
		exclusive:  make(map[string]bool),
		entry:      entry,
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, st := range stages {
		if st.ID == "" {
			return nil, fmt.Errorf("graph %s: stage with empty id", name)
		}
		if _, dup := g.stageIndex[st.ID]; dup {
			return nil, fmt.Errorf("graph %s: duplicate stage %q", name, st.ID)
		}
		g.stageIndex[st.ID] = st
	}

	if _, ok := g.stageIndex[entry]; !ok {
		return nil, fmt.Errorf("%w: entry stage %q", ErrStageNotFound, entry)
	}

	for i := range edges {
		e := &edges[i]
		if _, ok := g.stageIndex[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge %s references source %q", ErrStageNotFound, e.ID, e.From)
		}
		if e.To != DoneStage {
			if _, ok := g.stageIndex[e.To]; !ok {
				return nil, fmt.Errorf("%w: edge %s references target %q", ErrStageNotFound, e.ID, e.To)
			}
		}
		if err := e.compile(); err != nil {
			return nil, err
		}
		prior := g.edgeIndex[e.From]
		if n := len(prior); n > 0 && prior[n-1].IsDefault() {
			return nil, fmt.Errorf("graph %s: edge %s declared after default edge %s and is unreachable",
				name, e.ID, prior[n-1].ID)
		}
		g.edgeIndex[e.From] = append(g.edgeIndex[e.From], *e)
	}

	return g, nil
}

func (g *Graph) Name() string  { return g.name }
func (g *Graph) Entry() string { return g.entry }

// StageByID returns the stage with the given id.
func (g *Graph) StageByID(id string) (*Stage, bool) {
	st, ok := g.stageIndex[id]
	return st, ok
}

// EdgesFrom returns a stage's outgoing edges in declaration order.
func (g *Graph) EdgesFrom(stageID string) []Edge {
	return g.edgeIndex[stageID]
}

// Next routes from the given stage: edges are evaluated in declaration order
// and the first match wins, unless the stage is declared exclusive, in which
// case every predicate is evaluated and more than one match is
// ErrRoutingAmbiguity. No match without a default edge is ErrRoutingDeadEnd.
// Both conditions are graph-definition defects and are never retried.
func (g *Graph) Next(stageID string, s *State) (string, error) {
	edges := g.edgeIndex[stageID]
	if len(edges) == 0 {
		return DoneStage, nil
	}

	if g.exclusive[stageID] {
		matchedTo, matchedID, defaultTo := "", "", ""
		for i := range edges {
			e := &edges[i]
			if e.IsDefault() {
				defaultTo = e.To
				continue
			}
			ok, err := e.Matches(s)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
			if matchedID != "" {
				return "", fmt.Errorf("%w: stage %q edges %s and %s both match",
					ErrRoutingAmbiguity, stageID, matchedID, e.ID)
			}
			matchedTo, matchedID = e.To, e.ID
		}
		if matchedID != "" {
			return matchedTo, nil
		}
		if defaultTo != "" {
			return defaultTo, nil
		}
		return "", fmt.Errorf("%w: stage %q", ErrRoutingDeadEnd, stageID)
	}

	for i := range edges {
		e := &edges[i]
		ok, err := e.Matches(s)
		if err != nil {
			return "", err
		}
		if ok {
			return e.To, nil
		}
	}
	return "", fmt.Errorf("%w: stage %q", ErrRoutingDeadEnd, stageID)
}
