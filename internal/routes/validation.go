package routes

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"todo-api/internal/metrics"
	"todo-api/internal/models"
)

// 作成時のバリデーションルール (models.Todo の validate タグ) とエラーメッセージ
const (
	tagNotPast      = "notpast"
	tagNotCompleted = "notcompleted"
)

var validationMessages = map[string]string{
	tagNotPast:      "Cannot have due date in the past.",
	tagNotCompleted: "Cannot add completed todo.",
}

// ValidationProblem は400で返すバリデーションエラーのボディです。
type ValidationProblem struct {
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Errors map[string][]string `json:"errors"`
}

// ValidateNewTodo は POST /todos の前段でリクエストボディを検証するミドルウェアです。
// どちらのルールも必ず評価し、違反があればハンドラーを呼ばずに400を返します。
// m は nil でも構いません。ルールの登録に失敗した場合は panic します。
func ValidateNewTodo(now func() time.Time, m *metrics.Metrics) gin.HandlerFunc {
	v, err := newTodoValidator(now)
	if err != nil {
		panic(err)
	}

	return func(c *gin.Context) {
		var todo models.Todo
		if err := c.ShouldBindBodyWith(&todo, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
			return
		}

		problems := collectProblems(v.Struct(todo))
		if len(problems) == 0 {
			c.Next()
			return
		}

		if m != nil {
			for field := range problems {
				m.ValidationErr.WithLabelValues(field).Inc()
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationProblem{
			Title:  "One or more validation errors occurred.",
			Status: http.StatusBadRequest,
			Errors: problems,
		})
	}
}

// newTodoValidator は作成時のルールを登録した validator を返します。
func newTodoValidator(now func() time.Time) (*validator.Validate, error) {
	v := validator.New()

	// エラーのキーはJSONのフィールド名にする
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// DueDate は time.Time として検証する
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.DueDate); ok {
			return d.Time
		}
		return nil
	}, models.DueDate{})

	rules := map[string]validator.Func{
		tagNotPast: func(fl validator.FieldLevel) bool {
			var due time.Time
			switch v := fl.Field().Interface().(type) {
			case time.Time:
				due = v
			case models.DueDate:
				due = v.Time
			default:
				return false
			}
			return !due.Before(now().UTC())
		},
		tagNotCompleted: func(fl validator.FieldLevel) bool {
			return fl.Field().Kind() == reflect.Bool && !fl.Field().Bool()
		},
	}
	if err := registerRules(v, rules); err != nil {
		return nil, err
	}
	return v, nil
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("could not register validation %q: %w", tag, err)
		}
	}
	return nil
}

func collectProblems(err error) map[string][]string {
	if err == nil {
		return nil
	}

	problems := make(map[string][]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		problems[""] = []string{err.Error()}
		return problems
	}
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		problems[fe.Field()] = append(problems[fe.Field()], msg)
	}
	return problems
}
