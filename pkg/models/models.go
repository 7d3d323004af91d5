// Package models defines the task board's domain entities. Ownership is a
// strict tree: Team owns Users and Boards, Board owns Columns, Column owns
// Tasks, Task owns Subtasks. Every cross-tenant check walks this tree up to
// the owning team.
package models

// Team is the tenant boundary. The invite code is an opaque UUID used to
// self-enroll as a non-admin member.
type Team struct {
	ID         int64  `json:"id"`
	InviteCode string `json:"inviteCode"`
}

// User belongs to exactly one team. Username is the primary key and is
// globally unique across teams.
type User struct {
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
	IsAdmin      bool   `json:"isAdmin"`
	TeamID       int64  `json:"teamId"`
}

// Board belongs to one team and carries an explicit member set: the subset
// of the team with visibility into the board, independent of admin status.
type Board struct {
	ID     int64  `json:"id"`
	TeamID int64  `json:"team"`
	Name   string `json:"name"`
}

// Column is an ordered lane within a board.
type Column struct {
	ID      int64 `json:"id"`
	BoardID int64 `json:"board"`
	Order   int   `json:"order"`
}

// Task is an ordered card within a column, optionally assigned to one user.
type Task struct {
	ID          int64   `json:"id"`
	ColumnID    int64   `json:"column"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Order       int     `json:"order"`
	Assignee    *string `json:"user"`
}

// Subtask is an ordered checklist item within a task.
type Subtask struct {
	ID     int64  `json:"id"`
	TaskID int64  `json:"task"`
	Title  string `json:"title"`
	Order  int    `json:"order"`
	Done   bool   `json:"done"`
}
