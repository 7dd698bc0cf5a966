package workflow

import (
	"github.com/gammazero/toposort"
	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

// NodeType classifies static-analysis graph nodes.
type NodeType string

const (
	NodeTask       NodeType = "task"
	NodeCapability NodeType = "capability"
	NodeDecision   NodeType = "decision"
	NodeFork       NodeType = "fork"
	NodeJoin       NodeType = "join"
)

// EdgeType classifies static-analysis graph edges.
type EdgeType string

const (
	EdgeSequence    EdgeType = "sequence"
	EdgeProvides    EdgeType = "provides"
	EdgeConditional EdgeType = "conditional"
	EdgeContains    EdgeType = "contains"
)

// StructureNode is one node of the analysis graph fed to the converter.
type StructureNode struct {
	ID           string   `json:"id" yaml:"id"`
	Type         NodeType `json:"type" yaml:"type"`
	Tool         string   `json:"tool,omitempty" yaml:"tool,omitempty"`
	CapabilityID string   `json:"capability_id,omitempty" yaml:"capability_id,omitempty"`
	// Expression is the condition a decision node evaluates when
	// materialized as a task.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// StructureEdge is one edge of the analysis graph.
type StructureEdge struct {
	From    string   `json:"from" yaml:"from"`
	To      string   `json:"to" yaml:"to"`
	Type    EdgeType `json:"type" yaml:"type"`
	Outcome string   `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// Structure is a static-analysis graph convertible into an executable DAG.
type Structure struct {
	Nodes []StructureNode `json:"nodes" yaml:"nodes"`
	Edges []StructureEdge `json:"edges" yaml:"edges"`
}

// ConverterOptions tunes structure conversion.
type ConverterOptions struct {
	// MaterializeDecisions turns decision nodes into executable condition
	// tasks. By default decisions stay structural.
	MaterializeDecisions bool
}

// Converter maps an analysis graph into an executable task list with
// dependency and condition metadata.
type Converter struct {
	opts   ConverterOptions
	logger *zap.Logger
}

// NewConverter creates a converter.
func NewConverter(opts ConverterOptions, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		opts:   opts,
		logger: logger.With(zap.String("component", "dag_converter")),
	}
}

// Convert maps the structure into an executable DAG. A structure converts
// validly only if it contains at least one task or capability node.
func (c *Converter) Convert(s *Structure) (*types.DAGStructure, error) {
	nodes := make(map[string]*StructureNode, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID == "" {
			return nil, types.NewError(types.ErrInvalidStructure, "structure node id is required")
		}
		if _, dup := nodes[n.ID]; dup {
			return nil, types.NewErrorf(types.ErrInvalidStructure, "duplicate structure node id: %s", n.ID)
		}
		nodes[n.ID] = n
	}

	for _, e := range s.Edges {
		if _, ok := nodes[e.From]; !ok {
			return nil, types.NewErrorf(types.ErrInvalidStructure, "edge references unknown node %s", e.From)
		}
		if _, ok := nodes[e.To]; !ok {
			return nil, types.NewErrorf(types.ErrInvalidStructure, "edge references unknown node %s", e.To)
		}
	}

	tasks := make(map[string]*types.Task)
	var order []string
	for _, n := range s.Nodes {
		task, executable := c.materialize(&n)
		if executable {
			tasks[n.ID] = task
			order = append(order, n.ID)
		}
	}
	if !c.hasExecutable(s) {
		return nil, types.NewError(types.ErrNoExecutableNodes, "no executable nodes")
	}

	incoming := make(map[string][]StructureEdge)
	for _, e := range s.Edges {
		incoming[e.To] = append(incoming[e.To], e)
	}

	memo := make(map[string][]string)
	for _, e := range s.Edges {
		target, isTask := tasks[e.To]
		switch e.Type {
		case EdgeSequence, EdgeProvides:
			if !isTask {
				continue // structural targets resolve transitively
			}
			for _, dep := range c.effectiveDeps(e.From, tasks, incoming, memo, make(map[string]bool)) {
				target.DependsOn = appendUnique(target.DependsOn, dep)
			}
		case EdgeConditional:
			if !isTask {
				continue
			}
			target.Condition = &types.TaskCondition{
				DecisionNodeID:  e.From,
				RequiredOutcome: e.Outcome,
			}
			// A materialized decision is also an ordering dependency.
			if _, decisionIsTask := tasks[e.From]; decisionIsTask {
				target.DependsOn = appendUnique(target.DependsOn, e.From)
			}
		case EdgeContains:
			// Hierarchy only, ignored for execution.
		}
	}

	dag := &types.DAGStructure{Tasks: make([]types.Task, 0, len(order))}
	for _, id := range order {
		dag.Tasks = append(dag.Tasks, *tasks[id])
	}

	if err := dag.Validate(); err != nil {
		return nil, err
	}
	if err := checkAcyclic(dag); err != nil {
		return nil, err
	}

	c.logger.Debug("structure converted",
		zap.Int("nodes", len(s.Nodes)),
		zap.Int("tasks", len(dag.Tasks)),
	)
	return dag, nil
}

// materialize maps one structure node to a task, if it is executable.
func (c *Converter) materialize(n *StructureNode) (*types.Task, bool) {
	switch n.Type {
	case NodeTask:
		// Arguments stay empty; they are resolved at run time from the
		// node's preserved argument-resolution strategy.
		return &types.Task{
			ID:        n.ID,
			Kind:      types.TaskKindMCPTool,
			Tool:      n.Tool,
			Arguments: make(map[string]any),
		}, true
	case NodeCapability:
		return &types.Task{
			ID:           n.ID,
			Kind:         types.TaskKindCapability,
			CapabilityID: n.CapabilityID,
			Arguments:    make(map[string]any),
		}, true
	case NodeDecision:
		if !c.opts.MaterializeDecisions {
			return nil, false
		}
		return &types.Task{
			ID:        n.ID,
			Kind:      types.TaskKindCodeExecution,
			Code:      n.Expression,
			Arguments: make(map[string]any),
		}, true
	default:
		// fork and join are structural only, never tasks.
		return nil, false
	}
}

func (c *Converter) hasExecutable(s *Structure) bool {
	for _, n := range s.Nodes {
		if n.Type == NodeTask || n.Type == NodeCapability {
			return true
		}
	}
	return false
}

// effectiveDeps resolves a structure node to the task ids it stands for as
// a dependency source. Task-producing nodes stand for themselves; fork,
// join and non-materialized decision nodes resolve transitively through
// their own incoming sequence/provides edges, so a join's dependencies are
// the tasks feeding it and a fork's children become parallel siblings that
// inherit only the fork's upstream.
func (c *Converter) effectiveDeps(nodeID string, tasks map[string]*types.Task, incoming map[string][]StructureEdge, memo map[string][]string, visiting map[string]bool) []string {
	if _, isTask := tasks[nodeID]; isTask {
		return []string{nodeID}
	}
	if deps, ok := memo[nodeID]; ok {
		return deps
	}
	if visiting[nodeID] {
		return nil // structural cycle, caught by the final acyclicity check
	}
	visiting[nodeID] = true
	defer delete(visiting, nodeID)

	var deps []string
	for _, e := range incoming[nodeID] {
		if e.Type != EdgeSequence && e.Type != EdgeProvides {
			continue
		}
		for _, dep := range c.effectiveDeps(e.From, tasks, incoming, memo, visiting) {
			deps = appendUnique(deps, dep)
		}
	}
	memo[nodeID] = deps
	return deps
}

// checkAcyclic verifies the converted DAG has a topological order.
func checkAcyclic(dag *types.DAGStructure) error {
	var edges []toposort.Edge
	for _, t := range dag.Tasks {
		for _, dep := range t.DependsOn {
			edges = append(edges, toposort.Edge{dep, t.ID})
		}
	}
	if len(edges) == 0 {
		return nil
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return types.NewError(types.ErrCycleDetected, "cycle detected in converted structure").WithCause(err)
	}
	return nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
