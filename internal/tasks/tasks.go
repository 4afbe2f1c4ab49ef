package tasks

// Task represents one vocabulary word a player works through in a game scene.
type Task struct {
	ID          int64  `json:"task_id"`
	Word        string `json:"word"`
	Description string `json:"description"`
	Scene       string `json:"scene"`
	Done        bool   `json:"done"`
}

// Repo stores tasks across game sessions.
type Repo interface {
	// Save inserts the task or, when the scene already holds the word,
	// updates its description and resets its done flag. The task ID is
	// filled in on return.
	Save(t *Task) error

	// Get retrieves a task by ID.
	Get(id int64) (*Task, error)

	// ListByScene returns every task of a scene in insertion order.
	ListByScene(scene string) ([]Task, error)

	// MarkDone flags a task as completed.
	MarkDone(id int64) error

	// Delete removes a task.
	Delete(id int64) error

	// Close closes the underlying store.
	Close() error
}
