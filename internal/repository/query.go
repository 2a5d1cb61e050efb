package repository

import (
	"fmt"
	"strings"
)

// where собирает условия WHERE с нумерованными плейсхолдерами
type where struct {
	conds []string
	args  []any
}

// add добавляет условие, каждый ? заменяется на следующий $N
func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// arg добавляет аргумент без условия (LIMIT/OFFSET) и возвращает его плейсхолдер
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// like экранирует пользовательский ввод для ILIKE
func like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
