// Package story projects graph traversals into human-readable
// workflow narratives. A story starts at a ui_trigger node and follows
// inferred edges forward; it is derived data, recomputed from the
// graph on demand and never a source of truth.
package story

import (
	"fmt"
	"strings"

	"flowsight/pkg/graph"
)

// DefaultStepCap bounds traversal depth so a story stays readable and
// traversal always terminates.
const DefaultStepCap = 20

// Step is one narrated operation in a workflow.
type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"` // plain language
	Technical   string `json:"technical"`   // file:line plus snippet
	NodeID      string `json:"node_id"`
}

// UIWorkflow is a narrative derived from one ui_trigger node.
type UIWorkflow struct {
	TriggerID string `json:"trigger_id"`
	Title     string `json:"title"`
	Steps     []Step `json:"steps"`
	Summary   string `json:"summary"`
	Outcome   string `json:"outcome"`
}

// Synthesizer builds workflow stories from a graph.
type Synthesizer struct {
	stepCap int
}

// New creates a synthesizer. stepCap <= 0 means DefaultStepCap.
func New(stepCap int) *Synthesizer {
	if stepCap <= 0 {
		stepCap = DefaultStepCap
	}
	return &Synthesizer{stepCap: stepCap}
}

// Synthesize produces one story per ui_trigger node, in node insertion
// order.
func (s *Synthesizer) Synthesize(g *graph.WorkflowGraph) []UIWorkflow {
	// Adjacency in edge creation order, built once.
	adj := make(map[string][]*graph.WorkflowEdge)
	for _, e := range g.Edges() {
		adj[e.SourceID] = append(adj[e.SourceID], e)
	}

	var workflows []UIWorkflow
	for _, n := range g.Nodes() {
		if n.Type != graph.UITrigger {
			continue
		}
		workflows = append(workflows, s.trace(g, adj, n))
	}
	return workflows
}

// trace walks forward from the trigger. The visited set guards against
// cycles that proximity edges can form on reordered code.
func (s *Synthesizer) trace(g *graph.WorkflowGraph, adj map[string][]*graph.WorkflowEdge, trigger *graph.WorkflowNode) UIWorkflow {
	wf := UIWorkflow{
		TriggerID: trigger.ID,
		Title:     trigger.Name,
	}

	visited := map[string]bool{trigger.ID: true}
	current := trigger
	for len(wf.Steps) < s.stepCap {
		wf.Steps = append(wf.Steps, makeStep(current))

		var next *graph.WorkflowNode
		for _, e := range adj[current.ID] {
			if visited[e.TargetID] {
				continue
			}
			if candidate := g.Node(e.TargetID); candidate != nil {
				next = candidate
				break
			}
		}
		if next == nil {
			break
		}
		visited[next.ID] = true
		current = next
	}

	wf.Summary = summarize(trigger, wf.Steps)
	wf.Outcome = outcome(wf.Steps)
	return wf
}

func makeStep(n *graph.WorkflowNode) Step {
	return Step{
		Title:       n.Name,
		Description: plainLanguage(n),
		Technical:   fmt.Sprintf("%s:%d %s", n.Location.FilePath, n.Location.LineNumber, n.CodeSnippet),
		NodeID:      n.ID,
	}
}

// plainLanguage renders one node as a non-technical sentence.
func plainLanguage(n *graph.WorkflowNode) string {
	switch n.Type {
	case graph.UITrigger:
		return "The user interacts with the interface, starting this workflow."
	case graph.DatabaseRead:
		return fmt.Sprintf("The system loads %s records from the database.", orData(n.TableName))
	case graph.DatabaseWrite:
		return fmt.Sprintf("The system saves %s records to the database.", orData(n.TableName))
	case graph.APICall:
		if n.Endpoint != "" && n.Endpoint != graph.UnknownValue {
			return fmt.Sprintf("The system calls the %s service.", n.Endpoint)
		}
		return "The system calls an external service."
	case graph.FileRead:
		return "The system reads data from a file."
	case graph.FileWrite:
		return "The system writes data to a file."
	case graph.MessageSend:
		return fmt.Sprintf("The system sends a message to %s.", orData(n.QueueName))
	case graph.MessageReceive:
		return fmt.Sprintf("The system receives a message from %s.", orData(n.QueueName))
	case graph.DataTransform:
		return "The system transforms the data into the required shape."
	case graph.CacheRead:
		return "The system checks the cache for a stored result."
	case graph.CacheWrite:
		return "The system stores the result in the cache for next time."
	default:
		return n.Description
	}
}

func orData(name string) string {
	if name == "" || name == graph.UnknownValue {
		return "the relevant"
	}
	return name
}

func summarize(trigger *graph.WorkflowNode, steps []Step) string {
	return fmt.Sprintf("%s starts in %s and runs through %d step(s).",
		trigger.Name, trigger.Location.FilePath, len(steps))
}

// outcome states what the workflow ends with, based on its last
// meaningful step.
func outcome(steps []Step) string {
	if len(steps) == 0 {
		return "No operations detected after the trigger."
	}
	last := steps[len(steps)-1]
	switch {
	case strings.Contains(last.Description, "saves"):
		return "The workflow ends with data persisted to the database."
	case strings.Contains(last.Description, "sends a message"):
		return "The workflow ends with a message handed off for asynchronous processing."
	case strings.Contains(last.Description, "calls"):
		return "The workflow ends with an external service call."
	default:
		return fmt.Sprintf("The workflow ends after: %s", last.Title)
	}
}
