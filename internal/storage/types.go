package storage

// TodoItem 待办条目
// TodoItem is a single todo entry
type TodoItem struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// AuditEntry 记录一次工具调用的结果摘要
// AuditEntry records the outcome summary of one tool invocation
type AuditEntry struct {
	Tool    string
	OK      bool
	Summary string
}

// Store 持久化接口
// Store is the persistence interface
type Store interface {
	// Todo 操作 / Todo operations
	ListTodos() ([]TodoItem, error)
	ReplaceTodos(items []TodoItem) error

	// 调用审计 / Invocation audit
	LogOperation(entry AuditEntry) error

	// 生命周期 / Lifecycle
	Close() error
}
