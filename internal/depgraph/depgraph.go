// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

// Package depgraph stores caller->callee edges between artifacts and
// answers bounded BFS traversal queries over them — callers, callees,
// or both — flagging cycle edges rather than looping forever.
package depgraph

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/kraklabs/drspec/internal/domain"
	coreerrors "github.com/kraklabs/drspec/internal/errors"
)

// maxNodesExplored bounds a single traversal so a pathological graph
// reports truncation instead of hanging the caller.
const maxNodesExplored = 5000

// MaxDepth caps how far out a traversal may walk; requests beyond it
// are clamped.
const MaxDepth = 5

// Direction picks which edge direction a traversal walks.
type Direction string

const (
	// Callers walks callee -> caller: "what calls this function".
	Callers Direction = "callers"
	// Callees walks caller -> callee: "what does this function call".
	Callees Direction = "callees"
	// Both walks outward along both edge directions.
	Both Direction = "both"
)

// ParseDirection validates a direction string from an external caller.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Callers, Callees, Both:
		return Direction(s), nil
	}
	return "", coreerrors.Validation(coreerrors.CodeValidationError,
		fmt.Sprintf("direction %q is not callers, callees, or both", s), nil)
}

// Relationship describes how a node relates to the traversal root.
type Relationship string

const (
	RelRoot   Relationship = "root"
	RelCaller Relationship = "caller"
	RelCallee Relationship = "callee"
)

// Node is one visited artifact in a traversal result.
type Node struct {
	FunctionID   string                `json:"function_id"`
	Name         string                `json:"name"`
	FilePath     string                `json:"file_path"`
	Status       domain.ArtifactStatus `json:"status"`
	HasContract  bool                  `json:"has_contract"`
	Depth        int                   `json:"depth"`
	Relationship Relationship          `json:"relationship"`
}

// Edge is one traversed dependency edge. IsCycle marks an edge that
// closes back onto a node the walk already visited.
type Edge struct {
	CallerID string `json:"caller_id"`
	CalleeID string `json:"callee_id"`
	IsCycle  bool   `json:"is_cycle"`
}

// Result is the outcome of a bounded BFS walk.
type Result struct {
	Root            string `json:"root"`
	Nodes           []Node `json:"nodes"`
	Edges           []Edge `json:"edges"`
	HasCycles       bool   `json:"has_cycles"`
	MaxDepthReached int    `json:"max_depth_reached"`
	Truncated       bool   `json:"truncated,omitempty"`
}

// visit is one BFS frontier slot.
type visit struct {
	id    string
	depth int
}

// Graph is the shared handle dependency-graph operations hang off.
type Graph struct {
	db *sql.DB
}

// New wraps a *sql.DB already migrated by internal/store.
func New(db *sql.DB) *Graph {
	return &Graph{db: db}
}

// AddEdge records a caller -> callee dependency. Both ends must already
// exist as artifacts; callers insert edges after both sides of a call
// have been upserted.
func (g *Graph) AddEdge(ctx context.Context, callerID, calleeID string) error {
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO dependencies(caller_id, callee_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(caller_id, callee_id) DO NOTHING
	`, callerID, calleeID, time.Now().UTC())
	if err != nil {
		return coreerrors.Internal(fmt.Sprintf("depgraph: add edge %s -> %s", callerID, calleeID), err)
	}
	return nil
}

// DirectCallees returns the function_ids functionID calls directly,
// sorted for deterministic output.
func (g *Graph) DirectCallees(ctx context.Context, functionID string) ([]string, error) {
	return g.neighbors(ctx, `SELECT callee_id FROM dependencies WHERE caller_id = ? ORDER BY callee_id`, functionID)
}

// DirectCallers returns the function_ids that call functionID
// directly, sorted for deterministic output.
func (g *Graph) DirectCallers(ctx context.Context, functionID string) ([]string, error) {
	return g.neighbors(ctx, `SELECT caller_id FROM dependencies WHERE callee_id = ? ORDER BY caller_id`, functionID)
}

func (g *Graph) neighbors(ctx context.Context, query, functionID string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, query, functionID)
	if err != nil {
		return nil, coreerrors.Internal("depgraph: neighbors", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, coreerrors.Internal("depgraph: scan neighbor", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("depgraph: rows", err)
	}
	return out, nil
}

// GetGraph walks outward from rootID up to depth hops (clamped to
// [1,MaxDepth]), expanding callee edges unless direction is Callers
// and caller edges unless direction is Callees. Every traversed edge
// is emitted; an edge pointing at an already-visited node is flagged
// as a cycle edge and not expanded further. A root with no artifact
// row still produces a single-node graph with status UNKNOWN. Nodes
// come back sorted by depth, then function_id.
func (g *Graph) GetGraph(ctx context.Context, rootID string, depth int, direction Direction) (Result, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	result := Result{Root: rootID}

	rootNode, found, err := g.lookupNode(ctx, rootID)
	if err != nil {
		return Result{}, err
	}
	if !found {
		rootNode = Node{FunctionID: rootID, Status: domain.StatusUnknown}
	}
	rootNode.Depth = 0
	rootNode.Relationship = RelRoot

	nodes := map[string]Node{rootID: rootNode}
	frontier := []visit{{id: rootID, depth: 0}}
	seenEdges := make(map[[2]string]bool)
	explored := 0

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if cur.depth >= depth {
			continue
		}
		if explored >= maxNodesExplored {
			result.Truncated = true
			break
		}
		explored++

		if direction != Callers {
			callees, err := g.DirectCallees(ctx, cur.id)
			if err != nil {
				return Result{}, err
			}
			for _, callee := range callees {
				cycle := g.expand(ctx, nodes, &frontier, callee, cur.depth+1, RelCallee)
				if !seenEdges[[2]string{cur.id, callee}] {
					seenEdges[[2]string{cur.id, callee}] = true
					result.Edges = append(result.Edges, Edge{CallerID: cur.id, CalleeID: callee, IsCycle: cycle})
				}
				if cycle {
					result.HasCycles = true
				}
			}
		}
		if direction != Callees {
			callers, err := g.DirectCallers(ctx, cur.id)
			if err != nil {
				return Result{}, err
			}
			for _, caller := range callers {
				cycle := g.expand(ctx, nodes, &frontier, caller, cur.depth+1, RelCaller)
				if !seenEdges[[2]string{caller, cur.id}] {
					seenEdges[[2]string{caller, cur.id}] = true
					result.Edges = append(result.Edges, Edge{CallerID: caller, CalleeID: cur.id, IsCycle: cycle})
				}
				if cycle {
					result.HasCycles = true
				}
			}
		}
	}

	for _, n := range nodes {
		result.Nodes = append(result.Nodes, n)
		if n.Depth > result.MaxDepthReached {
			result.MaxDepthReached = n.Depth
		}
	}
	sort.Slice(result.Nodes, func(i, j int) bool {
		if result.Nodes[i].Depth != result.Nodes[j].Depth {
			return result.Nodes[i].Depth < result.Nodes[j].Depth
		}
		return result.Nodes[i].FunctionID < result.Nodes[j].FunctionID
	})
	return result, nil
}

// expand registers id as a visited node at the given depth if it is
// new, queueing it for further traversal, and reports whether the edge
// that led here closed a cycle (id was already visited).
func (g *Graph) expand(ctx context.Context, nodes map[string]Node, frontier *[]visit, id string, depth int, rel Relationship) bool {
	if _, seen := nodes[id]; seen {
		return true
	}
	n, found, err := g.lookupNode(ctx, id)
	if err != nil || !found {
		n = Node{FunctionID: id, Status: domain.StatusUnknown}
	}
	n.Depth = depth
	n.Relationship = rel
	nodes[id] = n
	*frontier = append(*frontier, visit{id: id, depth: depth})
	return false
}

func (g *Graph) lookupNode(ctx context.Context, functionID string) (Node, bool, error) {
	row := g.db.QueryRowContext(ctx, `
		SELECT a.function_id, a.name, a.file_path, a.status,
		       EXISTS(SELECT 1 FROM contracts c WHERE c.function_id = a.function_id)
		FROM artifacts a WHERE a.function_id = ?
	`, functionID)

	var n Node
	err := row.Scan(&n.FunctionID, &n.Name, &n.FilePath, &n.Status, &n.HasContract)
	if err == sql.ErrNoRows {
		return Node{}, false, nil
	}
	if err != nil {
		return Node{}, false, coreerrors.Internal("depgraph: lookup node", err)
	}
	return n, true, nil
}

// DegreeCount pairs a function with how many edges point out of (or
// into) it.
type DegreeCount struct {
	FunctionID string `json:"function_id"`
	Count      int    `json:"count"`
}

// Stats summarizes the whole graph for the status/report surfaces.
type Stats struct {
	TotalArtifacts int           `json:"total_artifacts"`
	TotalEdges     int           `json:"total_edges"`
	WithContracts  int           `json:"with_contracts"`
	TopOutgoing    []DegreeCount `json:"top_outgoing"`
	TopIncoming    []DegreeCount `json:"top_incoming"`
}

// ComputeStats counts artifacts, edges, and contract coverage, and
// ranks the ten most-outgoing and most-incoming functions.
func (g *Graph) ComputeStats(ctx context.Context) (Stats, error) {
	var stats Stats

	row := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`)
	if err := row.Scan(&stats.TotalArtifacts); err != nil {
		return Stats{}, coreerrors.Internal("depgraph: count artifacts", err)
	}
	row = g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dependencies`)
	if err := row.Scan(&stats.TotalEdges); err != nil {
		return Stats{}, coreerrors.Internal("depgraph: count dependencies", err)
	}
	row = g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`)
	if err := row.Scan(&stats.WithContracts); err != nil {
		return Stats{}, coreerrors.Internal("depgraph: count contracts", err)
	}

	var err error
	stats.TopOutgoing, err = g.topDegrees(ctx, `
		SELECT caller_id, COUNT(*) AS n FROM dependencies
		GROUP BY caller_id ORDER BY n DESC, caller_id ASC LIMIT 10`)
	if err != nil {
		return Stats{}, err
	}
	stats.TopIncoming, err = g.topDegrees(ctx, `
		SELECT callee_id, COUNT(*) AS n FROM dependencies
		GROUP BY callee_id ORDER BY n DESC, callee_id ASC LIMIT 10`)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (g *Graph) topDegrees(ctx context.Context, query string) ([]DegreeCount, error) {
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, coreerrors.Internal("depgraph: top degrees", err)
	}
	defer rows.Close()

	var out []DegreeCount
	for rows.Next() {
		var d DegreeCount
		if err := rows.Scan(&d.FunctionID, &d.Count); err != nil {
			return nil, coreerrors.Internal("depgraph: top degrees scan", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, coreerrors.Internal("depgraph: top degrees rows", err)
	}
	return out, nil
}
