package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. The foreign keys carry the
// cascade behavior: deleting a board removes its columns, their tasks, and
// their subtasks in one statement. Task assignment is nulled when the
// assignee is deleted rather than cascading.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS teams (
			id %s,
			invite_code TEXT NOT NULL UNIQUE
		)`, serial),
		`CREATE TABLE IF NOT EXISTS users (
			username VARCHAR(35) PRIMARY KEY,
			password_hash BYTEA NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS boards (
			id %s,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			name VARCHAR(35) NOT NULL
		)`, serial),
		`CREATE TABLE IF NOT EXISTS board_members (
			board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			username VARCHAR(35) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			PRIMARY KEY (board_id, username)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS columns (
			id %s,
			board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
			id %s,
			column_id BIGINT NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
			title VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			ord INTEGER NOT NULL,
			assignee VARCHAR(35) REFERENCES users(username) ON DELETE SET NULL
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS subtasks (
			id %s,
			task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			title VARCHAR(50) NOT NULL,
			ord INTEGER NOT NULL,
			done BOOLEAN NOT NULL DEFAULT FALSE
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_boards_team ON boards(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_columns_board ON columns(board_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subtasks_task ON subtasks(task_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
