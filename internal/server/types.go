package server

import (
	"time"

	"github.com/victorarias/todos/internal/todo"
)

type ListsResponse struct {
	Lists []APIList `json:"lists"`
	Total int       `json:"total"`
}

type APIList struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Complete  bool        `json:"complete"`
	Remaining int         `json:"remaining"`
	Total     int         `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Todos     []todo.Todo `json:"todos"`
}

type ImportRequest struct {
	Lists []ImportList `json:"lists"`
}

type ImportList struct {
	Name  string       `json:"name"`
	Todos []ImportTodo `json:"todos"`
}

type ImportTodo struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type ErrorResponse struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func newAPIList(list todo.List) APIList {
	todos := todo.SortTodos(list.Todos)
	return APIList{
		ID:        list.ID,
		Name:      list.Name,
		Complete:  todo.ListComplete(list),
		Remaining: todo.RemainingCount(list),
		Total:     todo.TodosCount(list),
		CreatedAt: list.CreatedAt,
		Todos:     todos,
	}
}
