// Package repositories はTodoの保存先を提供します。
package repositories

import (
	"sync"

	"todo-api/internal/models"
)

// TaskStore はTodoへのCRUDアクセスの契約です。
// 永続化するストアを追加する場合もこのインターフェースを実装します。
type TaskStore interface {
	// GetByID は挿入順で最初に一致したTodoを返します。
	GetByID(id int) (models.Todo, bool)
	// List はすべてのTodoを挿入順で返します。
	List() []models.Todo
	// Add はTodoを末尾に追加し、そのまま返します。IDの重複はチェックしません。
	Add(todo models.Todo) models.Todo
	// DeleteByID はIDが一致するTodoをすべて削除し、削除した件数を返します。一致しなくてもエラーにはなりません。
	DeleteByID(id int) int
	// Count は保存されている件数を返します。
	Count() int
}

// InMemoryTaskStore はプロセスメモリ上のスライスで動くTaskStoreです。
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	todos []models.Todo
}

// NewInMemoryTaskStore は新しいInMemoryTaskStoreを作成します。
// seedを渡した場合はその順序で初期データとして保持します。
func NewInMemoryTaskStore(seed ...models.Todo) *InMemoryTaskStore {
	todos := make([]models.Todo, 0, len(seed))
	todos = append(todos, seed...)
	return &InMemoryTaskStore{todos: todos}
}

func (s *InMemoryTaskStore) GetByID(id int) (models.Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.todos {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}

func (s *InMemoryTaskStore) List() []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 呼び出し側が内部スライスを書き換えられないようにコピーを返す
	out := make([]models.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

func (s *InMemoryTaskStore) Add(todo models.Todo) models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = append(s.todos, todo)
	return todo
}

func (s *InMemoryTaskStore) DeleteByID(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.todos[:0]
	for _, t := range s.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	// 末尾に残った古い要素をゼロ値にしておく
	for i := len(kept); i < len(s.todos); i++ {
		s.todos[i] = models.Todo{}
	}
	removed := len(s.todos) - len(kept)
	s.todos = kept
	return removed
}

func (s *InMemoryTaskStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

var _ TaskStore = (*InMemoryTaskStore)(nil)
