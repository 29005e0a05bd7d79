package bootstrap

import (
	"fmt"
	"strings"
)

// ResolveDependencies performs topological sort on initializers based on their dependencies.
// Returns initializers in the order they should be executed. Initializers
// with no ordering constraint between them keep their registration order.
// Returns error if circular dependency is detected or if a dependency is not found.
func ResolveDependencies(initializers []Initializer) ([]Initializer, error) {
	if len(initializers) == 0 {
		return nil, nil
	}

	nameToInit := make(map[string]Initializer, len(initializers))
	for _, init := range initializers {
		if _, exists := nameToInit[init.Name()]; exists {
			return nil, fmt.Errorf("duplicate initializer name: %s", init.Name())
		}
		nameToInit[init.Name()] = init
	}

	graph := make(map[string][]string, len(initializers))
	for _, init := range initializers {
		graph[init.Name()] = init.Dependencies()
	}

	for _, init := range initializers {
		for _, dep := range graph[init.Name()] {
			if _, exists := nameToInit[dep]; !exists {
				return nil, fmt.Errorf("initializer %q depends on %q which is not registered", init.Name(), dep)
			}
		}
	}

	if err := validateNoCycles(initializers, graph); err != nil {
		return nil, err
	}

	return topologicalSort(initializers, graph)
}

// validateNoCycles checks for circular dependencies in the graph.
// Uses DFS with three-color marking: white (unvisited), gray (in progress), black (done).
func validateNoCycles(initializers []Initializer, graph map[string][]string) error {
	const (
		white = 0
		gray  = 1 // on the current DFS path
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) error
	dfs = func(node string) error {
		color[node] = gray

		for _, dep := range graph[node] {
			if color[dep] == gray {
				return fmt.Errorf("circular dependency detected: %s", buildCyclePath(node, dep, parent))
			}
			if color[dep] == white {
				parent[dep] = node
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}

		color[node] = black
		return nil
	}

	for _, init := range initializers {
		if color[init.Name()] == white {
			if err := dfs(init.Name()); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCyclePath builds a string representation of the cycle path.
func buildCyclePath(from, to string, parent map[string]string) string {
	path := []string{to}
	current := from
	for current != to {
		path = append(path, current)
		current = parent[current]
		if current == "" {
			break
		}
	}
	path = append(path, to)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return strings.Join(path, " -> ")
}

// topologicalSort performs Kahn's algorithm to sort initializers by dependencies.
func topologicalSort(initializers []Initializer, graph map[string][]string) ([]Initializer, error) {
	inDegree := make(map[string]int, len(initializers))
	dependents := make(map[string][]string)
	for _, init := range initializers {
		name := init.Name()
		inDegree[name] += 0
		for _, dep := range graph[name] {
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	nameToInit := make(map[string]Initializer, len(initializers))
	var queue []string
	for _, init := range initializers {
		nameToInit[init.Name()] = init
		if inDegree[init.Name()] == 0 {
			queue = append(queue, init.Name())
		}
	}

	result := make([]Initializer, 0, len(initializers))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, nameToInit[name])

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(initializers) {
		return nil, fmt.Errorf("topological sort failed: some initializers could not be sorted")
	}

	return result, nil
}
