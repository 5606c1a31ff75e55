package todo

// SortLists returns lists with incomplete lists first and complete lists last.
// Relative order inside each group is preserved. The input is not modified.
func SortLists(lists []List) []List {
	out := make([]List, 0, len(lists))
	var complete []List
	for _, list := range lists {
		if ListComplete(list) {
			complete = append(complete, list)
			continue
		}
		out = append(out, list)
	}
	return append(out, complete...)
}

// SortTodos is SortLists for todos: incomplete first, stable.
func SortTodos(todos []Todo) []Todo {
	out := make([]Todo, 0, len(todos))
	var complete []Todo
	for _, t := range todos {
		if t.Completed {
			complete = append(complete, t)
			continue
		}
		out = append(out, t)
	}
	return append(out, complete...)
}

// ListComplete is true when the list has todos and none are remaining. An
// empty list is never complete.
func ListComplete(list List) bool {
	return TodosCount(list) >= 1 && RemainingCount(list) == 0
}

func RemainingCount(list List) int {
	n := 0
	for _, t := range list.Todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

func TodosCount(list List) int {
	return len(list.Todos)
}

// ListClass is the CSS class used when rendering list.
func ListClass(list List) string {
	if ListComplete(list) {
		return "complete"
	}
	return ""
}
