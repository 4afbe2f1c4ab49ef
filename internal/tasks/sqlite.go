package tasks

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteRepo persists tasks in a local SQLite database.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo opens (creating if needed) the task database at path.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	r := &SQLiteRepo{db: db}
	if err := r.init(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepo) init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS tasks(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL,
		description TEXT NOT NULL,
		scene TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		UNIQUE(scene, word)
	);`)
	return err
}

func (r *SQLiteRepo) Save(t *Task) error {
	if t.Word == "" || t.Scene == "" {
		return errors.New("invalid task word or scene")
	}
	_, err := r.db.Exec(`INSERT INTO tasks(word, description, scene, done) VALUES(?, ?, ?, 0)
		ON CONFLICT(scene, word) DO UPDATE SET description=excluded.description, done=0;`,
		t.Word, t.Description, t.Scene)
	if err != nil {
		return err
	}
	t.Done = false
	return r.db.QueryRow(`SELECT id FROM tasks WHERE scene=? AND word=?;`, t.Scene, t.Word).Scan(&t.ID)
}

func (r *SQLiteRepo) Get(id int64) (*Task, error) {
	t := Task{ID: id}
	err := r.db.QueryRow(`SELECT word, description, scene, done FROM tasks WHERE id=?;`, id).
		Scan(&t.Word, &t.Description, &t.Scene, &t.Done)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepo) ListByScene(scene string) ([]Task, error) {
	rows, err := r.db.Query(`SELECT id, word, description, scene, done FROM tasks WHERE scene=? ORDER BY id;`, scene)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Word, &t.Description, &t.Scene, &t.Done); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) MarkDone(id int64) error {
	res, err := r.db.Exec(`UPDATE tasks SET done=1 WHERE id=?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

func (r *SQLiteRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id=?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
