package todo

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateListNameLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"empty", "", false},
		{"one char", "a", true},
		{"hundred chars", strings.Repeat("a", 100), true},
		{"too long", strings.Repeat("a", 101), false},
		{"multibyte counted as runes", strings.Repeat("é", 100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListName(tt.input, nil)
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok {
				ve, ok := IsValidation(err)
				if !ok {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if ve.Kind != InvalidLength {
					t.Fatalf("expected InvalidLength, got %s", ve.Kind)
				}
			}
		})
	}
}

func TestValidateListNameDuplicate(t *testing.T) {
	lists := []List{{ID: 1, Name: "Groceries"}}
	err := ValidateListName("Groceries", lists)
	ve, ok := IsValidation(err)
	if !ok || ve.Kind != DuplicateName {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if ve.Message != "List name must be unique." {
		t.Fatalf("unexpected message %q", ve.Message)
	}
	if err := ValidateListName("groceries", lists); err != nil {
		t.Fatalf("names are case sensitive, got %v", err)
	}
}

func TestValidateTodoName(t *testing.T) {
	if err := ValidateTodoName("milk"); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	for _, input := range []string{"", strings.Repeat("x", 101)} {
		ve, ok := IsValidation(ValidateTodoName(input))
		if !ok || ve.Kind != InvalidLength {
			t.Fatalf("expected InvalidLength for %d chars", len(input))
		}
	}
}

func TestCreateListTwiceFailsOnSecond(t *testing.T) {
	now := time.Now()
	lists, first, err := CreateList(nil, "Work", now)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID != 1 || len(first.Todos) != 0 {
		t.Fatalf("unexpected list %+v", first)
	}
	lists, _, err = CreateList(lists, "  Work ", now)
	if _, ok := IsValidation(err); !ok {
		t.Fatalf("expected ValidationError on duplicate, got %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 list, got %d", len(lists))
	}
}

func TestCreateListTrimsName(t *testing.T) {
	_, list, err := CreateList(nil, "  Home  ", time.Now())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if list.Name != "Home" {
		t.Fatalf("expected trimmed name, got %q", list.Name)
	}
	if _, _, err := CreateList(nil, "   ", time.Now()); err == nil {
		t.Fatalf("expected whitespace-only name to fail")
	}
}

func TestDeleteListThenFind(t *testing.T) {
	lists, a, _ := CreateList(nil, "A", time.Now())
	lists, _, _ = CreateList(lists, "B", time.Now())
	lists = DeleteList(lists, a.ID)
	if _, err := FindList(lists, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "B" {
		t.Fatalf("unexpected lists %+v", lists)
	}
	lists = DeleteList(lists, 99)
	if len(lists) != 1 {
		t.Fatalf("deleting unknown id should be a no-op")
	}
}

func TestRenameList(t *testing.T) {
	lists, a, _ := CreateList(nil, "A", time.Now())
	lists, _, _ = CreateList(lists, "B", time.Now())

	if err := RenameList(lists, a.ID, "B"); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := RenameList(lists, a.ID, "C"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	got, _ := FindList(lists, a.ID)
	if got.Name != "C" {
		t.Fatalf("expected C, got %q", got.Name)
	}
	if err := RenameList(lists, 42, "D"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTodoIDsAreNotReused(t *testing.T) {
	list := &List{ID: 1, Name: "L"}
	for _, name := range []string{"one", "two", "three"} {
		if _, err := AddTodo(list, name); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	DeleteTodo(list, 2)
	added, err := AddTodo(list, "four")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added.ID != 4 {
		t.Fatalf("expected id 4, got %d", added.ID)
	}
	if added.Completed {
		t.Fatalf("new todos start incomplete")
	}
}

func TestSetCompletedIsExplicit(t *testing.T) {
	list := &List{ID: 1, Name: "L"}
	td, _ := AddTodo(list, "x")

	for _, want := range []bool{true, true, false, false} {
		if err := SetCompleted(list, td.ID, want); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if list.Todos[0].Completed != want {
			t.Fatalf("expected completed=%v", want)
		}
	}
	if err := SetCompleted(list, 9, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteAll(t *testing.T) {
	list := &List{ID: 1, Name: "L"}
	_, _ = AddTodo(list, "a")
	_, _ = AddTodo(list, "b")
	CompleteAll(list)
	if !ListComplete(*list) {
		t.Fatalf("expected list complete")
	}
	if RemainingCount(*list) != 0 || TodosCount(*list) != 2 {
		t.Fatalf("unexpected counts")
	}
}

func TestAddTodoRejectsBadLength(t *testing.T) {
	list := &List{ID: 1}
	if _, err := AddTodo(list, strings.Repeat("a", 101)); err == nil {
		t.Fatalf("expected error")
	}
	if len(list.Todos) != 0 {
		t.Fatalf("invalid todo should not be appended")
	}
}
