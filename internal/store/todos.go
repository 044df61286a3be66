package store

import (
	"fmt"
	"strings"
)

// AddTodo attaches a todo to a profile, project or profile service.
func (s *Store) AddTodo(scope TodoScope, parentID int64, text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("add todo: %w: text required", ErrInvalidInput)
	}
	res, err := s.db.Exec(
		fmt.Sprintf(`INSERT INTO %s (%s, text) VALUES (?, ?)`, scope.table(), scope.parentColumn()),
		parentID, text,
	)
	if err != nil {
		return nil, classify("add todo", err)
	}
	id, _ := res.LastInsertId()

	todos, err := s.queryTodos(scope, `id = ?`, id)
	if err != nil || len(todos) == 0 {
		return nil, err
	}
	return &todos[0], nil
}

// ListTodos returns the todos of one parent in creation order.
func (s *Store) ListTodos(scope TodoScope, parentID int64) ([]Todo, error) {
	return s.queryTodos(scope, scope.parentColumn()+` = ?`, parentID)
}

func (s *Store) queryTodos(scope TodoScope, where string, arg int64) ([]Todo, error) {
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT id, %s, text, completed, created_ts FROM %s WHERE %s ORDER BY created_ts, id`,
			scope.parentColumn(), scope.table(), where),
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		var t Todo
		var done int
		var created int64
		if err := rows.Scan(&t.ID, &t.ParentID, &t.Text, &done, &created); err != nil {
			return nil, err
		}
		t.Completed = done != 0
		t.CreatedAt = fromEpoch(created)
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *Store) SetTodoCompleted(scope TodoScope, id int64, completed bool) error {
	_, err := s.db.Exec(fmt.Sprintf(`UPDATE %s SET completed = ? WHERE id = ?`, scope.table()), boolInt(completed), id)
	if err != nil {
		return fmt.Errorf("complete todo %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteTodo(scope TodoScope, id int64) error {
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, scope.table()), id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}
