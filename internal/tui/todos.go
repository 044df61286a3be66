package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/solia/internal/store"
)

// todosModel is the checklist of one profile, project or booked service.
// The parent view opens it and closes it on esc.
type todosModel struct {
	store *store.Store

	width  int
	height int

	scope    store.TodoScope
	parentID int64
	title    string
	todos    []store.Todo
	cursor   int

	formActive bool
	form       *huh.Form
	formText   *string
}

func newTodosModel(s *store.Store) todosModel {
	text := ""
	return todosModel{store: s, formText: &text}
}

func (t *todosModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// open points the model at a new parent and loads its todos.
func (t todosModel) open(scope store.TodoScope, parentID int64, title string) (todosModel, tea.Cmd) {
	t.scope = scope
	t.parentID = parentID
	t.title = title
	t.todos = nil
	t.cursor = 0
	t.formActive = false
	t.form = nil
	return t, t.refresh()
}

type todosDataMsg struct {
	scope    store.TodoScope
	parentID int64
	todos    []store.Todo
}

func (t todosModel) refresh() tea.Cmd {
	scope, parentID := t.scope, t.parentID
	return func() tea.Msg {
		todos, err := t.store.ListTodos(scope, parentID)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return todosDataMsg{scope: scope, parentID: parentID, todos: todos}
	}
}

func (t todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(todosDataMsg); ok {
		if msg.scope != t.scope || msg.parentID != t.parentID {
			return t, nil
		}
		t.todos = msg.todos
		t.cursor = clamp(t.cursor, 0, max(0, len(t.todos)-1))
		return t, nil
	}

	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(km, keys.Down):
		if t.cursor < len(t.todos)-1 {
			t.cursor++
		}
	case key.Matches(km, keys.New):
		return t.showTodoForm()
	case key.Matches(km, keys.Select), key.Matches(km, keys.Enter):
		if todo, ok := t.current(); ok {
			return t, t.writeCmd(t.toggle(todo))
		}
	case key.Matches(km, keys.Delete):
		if todo, ok := t.current(); ok {
			return t, t.writeCmd(t.remove(todo))
		}
	}
	return t, nil
}

func (t todosModel) current() (store.Todo, bool) {
	if t.cursor < 0 || t.cursor >= len(t.todos) {
		return store.Todo{}, false
	}
	return t.todos[t.cursor], true
}

func (t todosModel) showTodoForm() (todosModel, tea.Cmd) {
	*t.formText = ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Todo").Value(t.formText).Validate(validTodo),
		).Title("New Todo"),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func validTodo(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("text is required")
	}
	return nil
}

func (t todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		return t, t.writeCmd(t.add(*t.formText))
	}
	return t, cmd
}

func (t todosModel) add(text string) func() error {
	scope, parentID := t.scope, t.parentID
	return func() error {
		_, err := t.store.AddTodo(scope, parentID, text)
		return err
	}
}

func (t todosModel) toggle(todo store.Todo) func() error {
	scope := t.scope
	return func() error { return t.store.SetTodoCompleted(scope, todo.ID, !todo.Completed) }
}

func (t todosModel) remove(todo store.Todo) func() error {
	scope := t.scope
	return func() error { return t.store.DeleteTodo(scope, todo.ID) }
}

// writeCmd runs a todo mutation and reloads the list. Todos feed no other
// view, so nothing goes on the bus.
func (t todosModel) writeCmd(fn func() error) tea.Cmd {
	return tea.Sequence(
		func() tea.Msg {
			if err := fn(); err != nil {
				return statusMsg{text: "Error: " + err.Error(), isError: true}
			}
			return statusMsg{text: "Todos saved"}
		},
		t.refresh(),
	)
}

// openCount is the number of todos not yet done.
func (t todosModel) openCount() int {
	n := 0
	for _, todo := range t.todos {
		if !todo.Completed {
			n++
		}
	}
	return n
}

func (t todosModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(t.title), "", t.form.View()),
		)
	}

	title := titleStyle.Render(t.title + " · Todos")
	if len(t.todos) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No todos. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, mutedStyle.Render(fmt.Sprintf("%d of %d open", t.openCount(), len(t.todos))), ""}
	for i, todo := range t.todos {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		box := "[ ]"
		if todo.Completed {
			box = "[x]"
			style = mutedStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, box, todo.Text)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  space: done  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
