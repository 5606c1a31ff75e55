package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/victorarias/todos/internal/session"
	"github.com/victorarias/todos/internal/todo"
)

const (
	msgListNotFound = "The specified list was not found."
	msgTodoNotFound = "The specified todo was not found."
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/lists", http.StatusFound)
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	s.render(w, r, http.StatusOK, "lists", newListsPage(sess.Lists()), layoutData{
		Title:        "Lists",
		HeaderAction: &headerAction{Href: "/lists/new", Label: "New List"},
	})
}

func (s *Server) handleNewList(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "new_list", listFormPage{}, layoutData{Title: "New List"})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	name := r.FormValue("list_name")

	lists, _, err := todo.CreateList(sess.Lists(), name, s.now())
	if ve, ok := todo.IsValidation(err); ok {
		s.render(w, r, http.StatusUnprocessableEntity, "new_list", listFormPage{ListName: name}, layoutData{
			Title: "New List",
			Error: ve.Message,
		})
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	sess.SetLists(lists)
	sess.SetSuccess("The list has been created.")
	s.redirect(w, r, "/lists")
}

func (s *Server) handleShowList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	view := newListView(*list)
	s.render(w, r, http.StatusOK, "list", listPage{List: &view}, layoutData{
		Title:        list.Name,
		HeaderAction: &headerAction{Href: "/lists", Label: "All Lists"},
	})
}

func (s *Server) handleEditList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	view := newListView(*list)
	s.render(w, r, http.StatusOK, "edit_list", listFormPage{List: &view, ListName: list.Name}, layoutData{
		Title: "Edit " + list.Name,
	})
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	name := r.FormValue("list_name")

	err := todo.RenameList(sess.Lists(), list.ID, name)
	if ve, ok := todo.IsValidation(err); ok {
		view := newListView(*list)
		s.render(w, r, http.StatusUnprocessableEntity, "edit_list", listFormPage{List: &view, ListName: name}, layoutData{
			Title: "Edit " + list.Name,
			Error: ve.Message,
		})
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	sess.SetLists(sess.Lists())
	sess.SetSuccess("The list has been updated.")
	s.redirect(w, r, listPath(list.ID))
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if id, ok := pathID(r, "id"); ok {
		sess.SetLists(todo.DeleteList(sess.Lists(), id))
	}
	if isAJAX(r) {
		// The client navigates to the body once the list is gone.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("/lists"))
		return
	}
	sess.SetSuccess("The list has been deleted.")
	s.redirect(w, r, "/lists")
}

func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	name := r.FormValue("todo")

	_, err := todo.AddTodo(list, name)
	if ve, ok := todo.IsValidation(err); ok {
		view := newListView(*list)
		s.render(w, r, http.StatusUnprocessableEntity, "list", listPage{List: &view, TodoName: name}, layoutData{
			Title:        list.Name,
			Error:        ve.Message,
			HeaderAction: &headerAction{Href: "/lists", Label: "All Lists"},
		})
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	sess.SetLists(sess.Lists())
	sess.SetSuccess("The todo was added.")
	s.redirect(w, r, listPath(list.ID))
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	todoID, ok := pathID(r, "todo_id")
	if !ok {
		s.notFound(w, r, sess, msgTodoNotFound)
		return
	}
	completed := r.FormValue("completed") == "true"
	if err := todo.SetCompleted(list, todoID, completed); err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			s.notFound(w, r, sess, msgTodoNotFound)
			return
		}
		s.serverError(w, err)
		return
	}
	sess.SetLists(sess.Lists())
	sess.SetSuccess("The todo has been updated.")
	s.redirect(w, r, listPath(list.ID))
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	listID, _ := pathID(r, "id")
	list, err := todo.FindList(sess.Lists(), listID)
	if err != nil {
		if isAJAX(r) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.notFound(w, r, sess, msgListNotFound)
		return
	}
	if todoID, ok := pathID(r, "todo_id"); ok {
		todo.DeleteTodo(list, todoID)
		sess.SetLists(sess.Lists())
	}
	if isAJAX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sess.SetSuccess("The todo has been deleted.")
	s.redirect(w, r, listPath(list.ID))
}

func (s *Server) handleCompleteAll(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	list, ok := s.lookupList(w, r, sess)
	if !ok {
		return
	}
	todo.CompleteAll(list)
	sess.SetLists(sess.Lists())
	sess.SetSuccess("All todos have been completed.")
	s.redirect(w, r, listPath(list.ID))
}

// lookupList resolves the {id} wildcard. On a miss it has already redirected
// to the list collection with an error notice.
func (s *Server) lookupList(w http.ResponseWriter, r *http.Request, sess *session.Session) (*todo.List, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		s.notFound(w, r, sess, msgListNotFound)
		return nil, false
	}
	list, err := todo.FindList(sess.Lists(), id)
	if err != nil {
		s.notFound(w, r, sess, msgListNotFound)
		return nil, false
	}
	return list, true
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, sess *session.Session, message string) {
	sess.SetError(message)
	s.redirect(w, r, "/lists")
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, location string) {
	status := http.StatusSeeOther
	if r.Method == http.MethodGet {
		status = http.StatusFound
	}
	http.Redirect(w, r, location, status)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data interface{}, chrome layoutData) {
	sess := session.FromContext(r.Context())
	notice := sess.TakeNotice()
	if chrome.Error == "" {
		chrome.Error = notice.Error
	}
	chrome.Success = notice.Success
	if chrome.Title == "" {
		chrome.Title = "Todo Tracker"
	}

	body, err := s.views.render(page, data, chrome)
	if err != nil {
		s.serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
}

func isAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func listPath(id int) string {
	return "/lists/" + strconv.Itoa(id)
}
