package todo

import "testing"

func TestListComplete(t *testing.T) {
	tests := []struct {
		name  string
		todos []Todo
		want  bool
	}{
		{"empty", nil, false},
		{"one incomplete", []Todo{{ID: 1}}, false},
		{"mixed", []Todo{{ID: 1, Completed: true}, {ID: 2}}, false},
		{"all done", []Todo{{ID: 1, Completed: true}, {ID: 2, Completed: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := List{Todos: tt.todos}
			if got := ListComplete(list); got != tt.want {
				t.Fatalf("ListComplete: got %v, want %v", got, tt.want)
			}
			wantClass := ""
			if tt.want {
				wantClass = "complete"
			}
			if got := ListClass(list); got != wantClass {
				t.Fatalf("ListClass: got %q, want %q", got, wantClass)
			}
		})
	}
}

func TestSortTodos(t *testing.T) {
	todos := []Todo{
		{ID: 1, Completed: true},
		{ID: 2, Completed: false},
		{ID: 3, Completed: true},
	}
	got := SortTodos(todos)
	wantIDs := []int{2, 1, 3}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d", i, got[i].ID, id)
		}
	}
	if todos[0].ID != 1 {
		t.Fatalf("input must not be reordered")
	}
}

func TestSortLists(t *testing.T) {
	lists := []List{
		{ID: 1, Todos: []Todo{{ID: 1, Completed: true}}},
		{ID: 2},
		{ID: 3, Todos: []Todo{{ID: 1, Completed: true}}},
		{ID: 4, Todos: []Todo{{ID: 1}}},
	}
	got := SortLists(lists)
	wantIDs := []int{2, 4, 1, 3}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestNextIDs(t *testing.T) {
	if NextListID(nil) != 1 {
		t.Fatalf("expected 1 for no lists")
	}
	if got := NextListID([]List{{ID: 3}, {ID: 1}}); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := NextTodoID([]Todo{{ID: 7}}); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}
