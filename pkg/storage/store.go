package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskwall/taskwall/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row. Callers map it to
// the appropriate field error.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence surface for the task board. All multi-step
// provisioning runs through RunInTx so aggregates commit or roll back as a
// unit.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	CreateTeam(ctx context.Context) (*models.Team, error)
	GetTeam(ctx context.Context, id int64) (*models.Team, error)
	GetTeamByInviteCode(ctx context.Context, code string) (*models.Team, error)
	GetTeamAdmin(ctx context.Context, teamID int64) (*models.User, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListTeamMembers(ctx context.Context, teamID int64) ([]models.User, error)
	DeleteUser(ctx context.Context, username string) error

	CreateBoard(ctx context.Context, b *models.Board) error
	GetBoard(ctx context.Context, id int64) (*models.Board, error)
	ListTeamBoards(ctx context.Context, teamID int64) ([]models.Board, error)
	ListMemberBoards(ctx context.Context, teamID int64, username string) ([]models.Board, error)
	UpdateBoardName(ctx context.Context, id int64, name string) error
	DeleteBoard(ctx context.Context, id int64) error
	AddBoardMember(ctx context.Context, boardID int64, username string) error
	RemoveBoardMember(ctx context.Context, boardID int64, username string) error
	IsBoardMember(ctx context.Context, boardID int64, username string) (bool, error)
	ListBoardMembers(ctx context.Context, boardID int64) ([]string, error)

	CreateColumn(ctx context.Context, c *models.Column) error
	GetColumn(ctx context.Context, id int64) (*models.Column, error)
	ListBoardColumns(ctx context.Context, boardID int64) ([]models.Column, error)

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListColumnTasks(ctx context.Context, columnID int64) ([]models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	ShiftColumnTasks(ctx context.Context, columnID int64, delta int) error
	DeleteTask(ctx context.Context, id int64) error

	CreateSubtask(ctx context.Context, s *models.Subtask) error
	GetSubtask(ctx context.Context, id int64) (*models.Subtask, error)
	ListTaskSubtasks(ctx context.Context, taskID int64) ([]models.Subtask, error)
	UpdateSubtask(ctx context.Context, s *models.Subtask) error
	DeleteTaskSubtasks(ctx context.Context, taskID int64) error

	CountBoards(ctx context.Context) (int64, error)
	CountTasks(ctx context.Context) (int64, error)
	CheckIntegrity(ctx context.Context) (*IntegrityReport, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore implements Store over database/sql. The SQL sticks to $N
// placeholders and a portable subset that both lib/pq and mattn/go-sqlite3
// accept.
type SQLStore struct {
	db     *sql.DB
	q      querier
	driver string
}

// NewSQLStore creates a store over an open database handle. driver is the
// database/sql driver name ("sqlite3" or "postgres") and selects the
// id-generation strategy in inserts.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, q: db, driver: driver}
}

// RunInTx executes fn against a transaction-bound copy of the store. Nested
// calls reuse the already-open transaction.
func (s *SQLStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &SQLStore{db: s.db, q: tx, driver: s.driver}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// insertReturningID runs an INSERT and reports the new row id. Postgres
// needs RETURNING; sqlite exposes LastInsertId.
func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.q.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateTeam inserts a team with a fresh invite code.
func (s *SQLStore) CreateTeam(ctx context.Context) (*models.Team, error) {
	code := uuid.NewString()
	id, err := s.insertReturningID(ctx,
		`INSERT INTO teams (invite_code) VALUES ($1)`, code)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &models.Team{ID: id, InviteCode: code}, nil
}

// GetTeam retrieves a team by id.
func (s *SQLStore) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	t := &models.Team{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, invite_code FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.InviteCode)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

// GetTeamByInviteCode retrieves a team by its invite code.
func (s *SQLStore) GetTeamByInviteCode(ctx context.Context, code string) (*models.Team, error) {
	t := &models.Team{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, invite_code FROM teams WHERE invite_code = $1`, code).
		Scan(&t.ID, &t.InviteCode)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get team by invite code: %w", err)
	}
	return t, nil
}

// GetTeamAdmin retrieves the team's admin. Provisioning assumes one admin
// per team; if several exist the first by username wins.
func (s *SQLStore) GetTeamAdmin(ctx context.Context, teamID int64) (*models.User, error) {
	u := &models.User{}
	err := s.q.QueryRowContext(ctx,
		`SELECT username, password_hash, is_admin, team_id
		 FROM users WHERE team_id = $1 AND is_admin ORDER BY username LIMIT 1`, teamID).
		Scan(&u.Username, &u.PasswordHash, &u.IsAdmin, &u.TeamID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get team admin: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_admin, team_id)
		 VALUES ($1, $2, $3, $4)`,
		u.Username, u.PasswordHash, u.IsAdmin, u.TeamID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by username.
func (s *SQLStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.q.QueryRowContext(ctx,
		`SELECT username, password_hash, is_admin, team_id
		 FROM users WHERE username = $1`, username).
		Scan(&u.Username, &u.PasswordHash, &u.IsAdmin, &u.TeamID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListTeamMembers lists all users of a team.
func (s *SQLStore) ListTeamMembers(ctx context.Context, teamID int64) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT username, password_hash, is_admin, team_id
		 FROM users WHERE team_id = $1 ORDER BY username`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.IsAdmin, &u.TeamID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user. Board memberships cascade; task assignments
// are nulled by the schema.
func (s *SQLStore) DeleteUser(ctx context.Context, username string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateBoard inserts a board and fills in its id.
func (s *SQLStore) CreateBoard(ctx context.Context, b *models.Board) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO boards (team_id, name) VALUES ($1, $2)`, b.TeamID, b.Name)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	b.ID = id
	return nil
}

// GetBoard retrieves a board by id.
func (s *SQLStore) GetBoard(ctx context.Context, id int64) (*models.Board, error) {
	b := &models.Board{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, team_id, name FROM boards WHERE id = $1`, id).
		Scan(&b.ID, &b.TeamID, &b.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// ListTeamBoards lists all boards of a team.
func (s *SQLStore) ListTeamBoards(ctx context.Context, teamID int64) ([]models.Board, error) {
	return s.queryBoards(ctx,
		`SELECT id, team_id, name FROM boards WHERE team_id = $1 ORDER BY id`, teamID)
}

// ListMemberBoards lists the team's boards the given user is a member of.
func (s *SQLStore) ListMemberBoards(ctx context.Context, teamID int64, username string) ([]models.Board, error) {
	return s.queryBoards(ctx,
		`SELECT b.id, b.team_id, b.name
		 FROM boards b
		 JOIN board_members m ON m.board_id = b.id
		 WHERE b.team_id = $1 AND m.username = $2
		 ORDER BY b.id`, teamID, username)
}

func (s *SQLStore) queryBoards(ctx context.Context, query string, args ...interface{}) ([]models.Board, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.TeamID, &b.Name); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// UpdateBoardName renames a board.
func (s *SQLStore) UpdateBoardName(ctx context.Context, id int64, name string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE boards SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update board name: %w", err)
	}
	return nil
}

// DeleteBoard removes a board. Columns, tasks, and subtasks cascade in the
// schema, so one delete removes the whole subtree.
func (s *SQLStore) DeleteBoard(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// AddBoardMember grants a user visibility into a board. Adding an existing
// member is a no-op.
func (s *SQLStore) AddBoardMember(ctx context.Context, boardID int64, username string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO board_members (board_id, username) VALUES ($1, $2)
		 ON CONFLICT (board_id, username) DO NOTHING`, boardID, username)
	if err != nil {
		return fmt.Errorf("add board member: %w", err)
	}
	return nil
}

// RemoveBoardMember revokes a user's board membership.
func (s *SQLStore) RemoveBoardMember(ctx context.Context, boardID int64, username string) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = $1 AND username = $2`, boardID, username)
	if err != nil {
		return fmt.Errorf("remove board member: %w", err)
	}
	return nil
}

// IsBoardMember reports whether a user belongs to a board's member set.
func (s *SQLStore) IsBoardMember(ctx context.Context, boardID int64, username string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM board_members WHERE board_id = $1 AND username = $2`,
		boardID, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is board member: %w", err)
	}
	return n > 0, nil
}

// ListBoardMembers lists the usernames with access to a board.
func (s *SQLStore) ListBoardMembers(ctx context.Context, boardID int64) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT username FROM board_members WHERE board_id = $1 ORDER BY username`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list board members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateColumn inserts a column and fills in its id.
func (s *SQLStore) CreateColumn(ctx context.Context, c *models.Column) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO columns (board_id, ord) VALUES ($1, $2)`, c.BoardID, c.Order)
	if err != nil {
		return fmt.Errorf("create column: %w", err)
	}
	c.ID = id
	return nil
}

// GetColumn retrieves a column by id.
func (s *SQLStore) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	c := &models.Column{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, board_id, ord FROM columns WHERE id = $1`, id).
		Scan(&c.ID, &c.BoardID, &c.Order)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get column: %w", err)
	}
	return c, nil
}

// ListBoardColumns lists a board's columns in display order.
func (s *SQLStore) ListBoardColumns(ctx context.Context, boardID int64) ([]models.Column, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, board_id, ord FROM columns WHERE board_id = $1 ORDER BY ord, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list board columns: %w", err)
	}
	defer rows.Close()

	var cols []models.Column
	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Order); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// CreateTask inserts a task and fills in its id.
func (s *SQLStore) CreateTask(ctx context.Context, t *models.Task) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO tasks (column_id, title, description, ord, assignee)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ColumnID, t.Title, t.Description, t.Order, t.Assignee)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.ID = id
	return nil
}

// GetTask retrieves a task by id.
func (s *SQLStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t := &models.Task{}
	var assignee sql.NullString
	err := s.q.QueryRowContext(ctx,
		`SELECT id, column_id, title, description, ord, assignee
		 FROM tasks WHERE id = $1`, id).
		Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Order, &assignee)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if assignee.Valid {
		t.Assignee = &assignee.String
	}
	return t, nil
}

// ListColumnTasks lists a column's tasks in display order.
func (s *SQLStore) ListColumnTasks(ctx context.Context, columnID int64) ([]models.Task, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, column_id, title, description, ord, assignee
		 FROM tasks WHERE column_id = $1 ORDER BY ord, id`, columnID)
	if err != nil {
		return nil, fmt.Errorf("list column tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var assignee sql.NullString
		if err := rows.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Order, &assignee); err != nil {
			return nil, err
		}
		if assignee.Valid {
			t.Assignee = &assignee.String
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask writes all mutable task fields.
func (s *SQLStore) UpdateTask(ctx context.Context, t *models.Task) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET column_id = $1, title = $2, description = $3, ord = $4, assignee = $5
		 WHERE id = $6`,
		t.ColumnID, t.Title, t.Description, t.Order, t.Assignee, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// ShiftColumnTasks adds delta to the order of every task in the column.
func (s *SQLStore) ShiftColumnTasks(ctx context.Context, columnID int64, delta int) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE tasks SET ord = ord + $1 WHERE column_id = $2`, delta, columnID)
	if err != nil {
		return fmt.Errorf("shift column tasks: %w", err)
	}
	return nil
}

// DeleteTask removes a task. Subtasks cascade.
func (s *SQLStore) DeleteTask(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// CreateSubtask inserts a subtask and fills in its id.
func (s *SQLStore) CreateSubtask(ctx context.Context, st *models.Subtask) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO subtasks (task_id, title, ord, done) VALUES ($1, $2, $3, $4)`,
		st.TaskID, st.Title, st.Order, st.Done)
	if err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	st.ID = id
	return nil
}

// GetSubtask retrieves a subtask by id.
func (s *SQLStore) GetSubtask(ctx context.Context, id int64) (*models.Subtask, error) {
	st := &models.Subtask{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, task_id, title, ord, done FROM subtasks WHERE id = $1`, id).
		Scan(&st.ID, &st.TaskID, &st.Title, &st.Order, &st.Done)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return st, nil
}

// ListTaskSubtasks lists a task's subtasks in display order.
func (s *SQLStore) ListTaskSubtasks(ctx context.Context, taskID int64) ([]models.Subtask, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, task_id, title, ord, done
		 FROM subtasks WHERE task_id = $1 ORDER BY ord, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []models.Subtask
	for rows.Next() {
		var st models.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Order, &st.Done); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

// UpdateSubtask writes all mutable subtask fields.
func (s *SQLStore) UpdateSubtask(ctx context.Context, st *models.Subtask) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE subtasks SET title = $1, ord = $2, done = $3 WHERE id = $4`,
		st.Title, st.Order, st.Done, st.ID)
	if err != nil {
		return fmt.Errorf("update subtask: %w", err)
	}
	return nil
}

// DeleteTaskSubtasks removes every subtask of a task.
func (s *SQLStore) DeleteTaskSubtasks(ctx context.Context, taskID int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("delete task subtasks: %w", err)
	}
	return nil
}

// CountBoards reports the total number of boards, for the business gauges.
func (s *SQLStore) CountBoards(ctx context.Context) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards`).Scan(&n)
	return n, err
}

// CountTasks reports the total number of tasks, for the business gauges.
func (s *SQLStore) CountTasks(ctx context.Context) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}
