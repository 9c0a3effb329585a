package services

import (
	"errors"

	"todo-api/internal/metrics"
	"todo-api/internal/models"
	"todo-api/internal/repositories"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

// TodoService はTodo関連のビジネスロジックを扱います。
type TodoService struct {
	store   repositories.TaskStore
	metrics *metrics.Metrics
}

// NewTodoService は新しいTodoServiceを作成します。m は nil でも構いません。
func NewTodoService(store repositories.TaskStore, m *metrics.Metrics) *TodoService {
	if m != nil {
		m.TodosStored.Set(float64(store.Count()))
	}
	return &TodoService{store: store, metrics: m}
}

// CreateTodo は新しいTodoを保存します。バリデーションは routes.ValidateNewTodo で済んでいる前提です。
func (s *TodoService) CreateTodo(todo models.Todo) models.Todo {
	created := s.store.Add(todo)
	if s.metrics != nil {
		s.metrics.TodosCreated.Inc()
		s.metrics.TodosStored.Inc()
	}
	return created
}

// GetTodos はすべてのTodoを挿入順で取得します。
func (s *TodoService) GetTodos() []models.Todo {
	return s.store.List()
}

// GetTodoByID は指定IDのTodoを取得します。
func (s *TodoService) GetTodoByID(id int) (models.Todo, error) {
	todo, ok := s.store.GetByID(id)
	if !ok {
		return models.Todo{}, ErrTodoNotFound
	}
	return todo, nil
}

// DeleteTodo は指定IDのTodoをすべて削除します。存在しなくても成功扱いです。
func (s *TodoService) DeleteTodo(id int) {
	if removed := s.store.DeleteByID(id); removed > 0 && s.metrics != nil {
		s.metrics.TodosStored.Sub(float64(removed))
	}
}

// Count は保存されている件数を返します。
func (s *TodoService) Count() int {
	return s.store.Count()
}
