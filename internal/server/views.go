package server

import (
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"

	"github.com/victorarias/todos/internal/todo"
)

//go:embed views
var viewsFS embed.FS

type views struct {
	layout *mustache.Template
	pages  map[string]*mustache.Template
}

func loadViews() (*views, error) {
	entries, err := viewsFS.ReadDir("views")
	if err != nil {
		return nil, err
	}
	v := &views{pages: make(map[string]*mustache.Template)}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".mustache") {
			continue
		}
		data, err := viewsFS.ReadFile(path.Join("views", name))
		if err != nil {
			return nil, err
		}
		tmpl, err := mustache.ParseString(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		key := strings.TrimSuffix(name, ".mustache")
		if key == "layout" {
			v.layout = tmpl
			continue
		}
		v.pages[key] = tmpl
	}
	if v.layout == nil {
		return nil, fmt.Errorf("layout view missing")
	}
	return v, nil
}

func (v *views) render(page string, data interface{}, chrome layoutData) (string, error) {
	tmpl, ok := v.pages[page]
	if !ok {
		return "", fmt.Errorf("unknown view %q", page)
	}
	return tmpl.RenderInLayout(v.layout, data, chrome)
}

type headerAction struct {
	Href  string
	Label string
}

type layoutData struct {
	Title        string
	Success      string
	Error        string
	HeaderAction *headerAction
}

type listView struct {
	ID         int
	Name       string
	Class      string
	Complete   bool
	Remaining  int
	Total      int
	CreatedAgo string
	Todos      []todoView
}

type todoView struct {
	ID        int
	ListID    int
	Name      string
	Completed bool
	// NextState is the completed value the toggle form submits.
	NextState string
}

type listsPage struct {
	Lists []listView
}

type listFormPage struct {
	List     *listView
	ListName string
}

type listPage struct {
	List     *listView
	TodoName string
}

func newListView(list todo.List) listView {
	view := listView{
		ID:        list.ID,
		Name:      list.Name,
		Class:     todo.ListClass(list),
		Complete:  todo.ListComplete(list),
		Remaining: todo.RemainingCount(list),
		Total:     todo.TodosCount(list),
	}
	if !list.CreatedAt.IsZero() {
		view.CreatedAgo = humanize.Time(list.CreatedAt)
	}
	for _, t := range todo.SortTodos(list.Todos) {
		view.Todos = append(view.Todos, todoView{
			ID:        t.ID,
			ListID:    list.ID,
			Name:      t.Name,
			Completed: t.Completed,
			NextState: strconv.FormatBool(!t.Completed),
		})
	}
	return view
}

func newListsPage(lists []todo.List) listsPage {
	page := listsPage{Lists: []listView{}}
	for _, list := range todo.SortLists(lists) {
		page.Lists = append(page.Lists, newListView(list))
	}
	return page
}
