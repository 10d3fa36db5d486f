package engine

import "github.com/sadopc/worklog/internal/domain"

// AggregateParentProgress is the rounded mean of the children's progress,
// or 0 when there are no children.
func AggregateParentProgress(children []int) int {
	if len(children) == 0 {
		return 0
	}
	sum := 0
	for _, p := range children {
		sum += p
	}
	avg := roundHalfUp(float64(sum) / float64(len(children)))
	if avg < 0 {
		return 0
	}
	if avg > 100 {
		return 100
	}
	return avg
}

// CanHaveSubtasks reports whether task sits at depth 1. Depth is capped at
// two by refusing sub-tasks under sub-tasks, so no traversal is needed.
func CanHaveSubtasks(task domain.Task) bool {
	return task.ParentTaskID == nil
}

// ValidateSubtaskCreation checks that parent may take a new sub-task.
func ValidateSubtaskCreation(parent domain.Task) error {
	if !CanHaveSubtasks(parent) {
		return domain.HierarchyDepthExceeded(parent.ID)
	}
	if parent.Status == domain.StatusArchived {
		return domain.InvalidParentState(parent.ID, parent.Status)
	}
	return nil
}

// ChildProgress collects the progress values of tasks.
func ChildProgress(tasks []domain.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Progress)
	}
	return out
}
