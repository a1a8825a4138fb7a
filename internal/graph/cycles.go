package graph

import "fmt"

// DetectCycles checks the data and partial arrows for a cycle that does not
// pass through an Exit. It returns a non-nil error naming an actor on the first
// such cycle found.
func (g *Graph) DetectCycles() error {
	// Classic depth-first search with three sets of actors:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the recursion stack of the current traversal.
	// unvisited: everything else.
	permanent := make(map[ActorID]bool)
	temporary := make(map[ActorID]bool)

	successors := make(map[ActorID][]ActorID)
	for _, arrow := range g.arrows {
		if arrow.Kind == BranchIDArrow || g.actors[arrow.From].Role == RoleExit {
			continue
		}
		successors[arrow.From] = append(successors[arrow.From], arrow.To)
	}

	var visit func(id ActorID) error
	visit = func(id ActorID) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("data cycle not broken by an exit detected involving actor '%s'", g.actors[id].Name)
		}

		temporary[id] = true
		for _, next := range successors[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true

		return nil
	}

	for _, a := range g.actors {
		if !permanent[a.ID] {
			if err := visit(a.ID); err != nil {
				return err
			}
		}
	}

	return nil
}
