package todo

import (
	"strings"
	"time"
)

// NextListID returns one past the highest list id, or 1 for no lists.
func NextListID(lists []List) int {
	maxID := 0
	for _, list := range lists {
		if list.ID > maxID {
			maxID = list.ID
		}
	}
	return maxID + 1
}

// NextTodoID returns one past the highest todo id, or 1 for no todos.
func NextTodoID(todos []Todo) int {
	maxID := 0
	for _, t := range todos {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// CreateList validates name and appends a new, empty list. The returned slice
// replaces lists; on error it is lists unchanged.
func CreateList(lists []List, name string, now time.Time) ([]List, List, error) {
	name = strings.TrimSpace(name)
	if err := ValidateListName(name, lists); err != nil {
		return lists, List{}, err
	}
	list := List{
		ID:        NextListID(lists),
		Name:      name,
		Todos:     []Todo{},
		CreatedAt: now.UTC(),
	}
	return append(lists, list), list, nil
}

// FindList returns a pointer into lists so callers can mutate in place.
func FindList(lists []List, id int) (*List, error) {
	for i := range lists {
		if lists[i].ID == id {
			return &lists[i], nil
		}
	}
	return nil, ErrNotFound
}

func RenameList(lists []List, id int, name string) error {
	list, err := FindList(lists, id)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := ValidateListName(name, lists); err != nil {
		return err
	}
	list.Name = name
	return nil
}

// DeleteList removes the list with id. Unknown ids are ignored.
func DeleteList(lists []List, id int) []List {
	out := lists[:0]
	for _, list := range lists {
		if list.ID != id {
			out = append(out, list)
		}
	}
	return out
}

func AddTodo(list *List, name string) (Todo, error) {
	name = strings.TrimSpace(name)
	if err := ValidateTodoName(name); err != nil {
		return Todo{}, err
	}
	t := Todo{ID: NextTodoID(list.Todos), Name: name}
	list.Todos = append(list.Todos, t)
	return t, nil
}

func FindTodo(list *List, todoID int) (*Todo, error) {
	for i := range list.Todos {
		if list.Todos[i].ID == todoID {
			return &list.Todos[i], nil
		}
	}
	return nil, ErrNotFound
}

// SetCompleted stores the state the caller asked for; it never flips.
func SetCompleted(list *List, todoID int, completed bool) error {
	t, err := FindTodo(list, todoID)
	if err != nil {
		return err
	}
	t.Completed = completed
	return nil
}

func CompleteAll(list *List) {
	for i := range list.Todos {
		list.Todos[i].Completed = true
	}
}

// DeleteTodo removes the todo with todoID. Unknown ids are ignored.
func DeleteTodo(list *List, todoID int) {
	out := list.Todos[:0]
	for _, t := range list.Todos {
		if t.ID != todoID {
			out = append(out, t)
		}
	}
	list.Todos = out
}
