package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"todo-api/internal/models"
	"todo-api/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// CreateTodoHandler は新しいTodoを作成します。
// ボディは ValidateNewTodo で読み込み済みのため ShouldBindBodyWith で再利用します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var newTodo models.Todo
	if err := c.ShouldBindBodyWith(&newTodo, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	createdTodo := h.todoService.CreateTodo(newTodo)
	c.Header("Location", fmt.Sprintf("/todos/%d", createdTodo.ID))
	c.JSON(http.StatusCreated, createdTodo)
}

// GetTodosHandler はTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.todoService.GetTodos())
}

// GetTodoByIDHandler は指定IDのTodoを取得します。見つからない場合はボディなしの404を返します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodoByID(id)
	if err != nil {
		if errors.Is(err, services.ErrTodoNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todo"})
		return
	}
	c.JSON(http.StatusOK, todo)
}

// DeleteTodoHandler はTodoを削除します。対象がなくても204を返します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	h.todoService.DeleteTodo(id)
	c.Status(http.StatusNoContent)
}

// HealthHandler はシンプルなヘルスチェックエンドポイントです。
func (h *TodoHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "todos": h.todoService.Count()})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return id, true
}
