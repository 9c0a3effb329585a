// Package modelsはTodoを定義します。
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Todo は1件のタスクを表す値型です。作成後に変更されることはありません。
// validateタグ: 作成時のバリデーション (routes.ValidateNewTodo) で使用
type Todo struct {
	ID          int     `json:"id"`                                   // 呼び出し側が指定するID (一意性はチェックしない)
	Name        string  `json:"name"`                                 // タスク名
	DueDate     DueDate `json:"dueDate" validate:"notpast"`           // 期限 (UTC)
	IsCompleted bool    `json:"isCompleted" validate:"notcompleted"` // 完了状態
}

// DueDate はISO-8601形式の期限です。
// タイムゾーンのオフセットがない値はUTCとして扱います。
type DueDate struct {
	time.Time
}

// dueDateLayouts は UnmarshalJSON が順に試すレイアウトです。
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// NewDueDate は t を DueDate に変換します。
func NewDueDate(t time.Time) DueDate {
	return DueDate{Time: t}
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	return d.Time.MarshalJSON()
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dueDate must be a string: %w", err)
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("dueDate %q is not an ISO-8601 timestamp", s)
}
