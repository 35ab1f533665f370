package pipeline

import (
	"fmt"
	"slices"
)

// Levels groups stages by dependency depth using Kahn's algorithm: level 0
// has no dependencies, level n depends only on earlier levels. Within a
// level, stages keep their declared order. The runner does not use this;
// it runs stages in declared order. Levels is for display.
func Levels(stages []Stage) ([][]string, error) {
	inDegree := make(map[string]int, len(stages))
	dependents := make(map[string][]string)
	order := make(map[string]int, len(stages))

	for i, s := range stages {
		inDegree[s.Name()] = 0
		order[s.Name()] = i
	}
	for _, s := range stages {
		for _, dep := range s.DependsOn() {
			if _, ok := inDegree[dep]; !ok {
				return nil, fmt.Errorf("pipeline: stage %q depends on unknown stage %q", s.Name(), dep)
			}
			inDegree[s.Name()]++
			dependents[dep] = append(dependents[dep], s.Name())
		}
	}

	var queue []string
	for _, s := range stages {
		if inDegree[s.Name()] == 0 {
			queue = append(queue, s.Name())
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		slices.SortFunc(next, func(a, b string) int { return order[a] - order[b] })
		queue = next
	}

	if visited != len(stages) {
		return nil, fmt.Errorf("pipeline: cycle detected, processed %d of %d stages", visited, len(stages))
	}
	return levels, nil
}
