// Package access is the authorization layer between authenticated identities
// and domain operations. It models the privilege tiers (admin, task
// assignee, board member, plain team member), a declarative table of which
// tiers satisfy each operation, and the ownership checks that keep every
// request inside the caller's team.
package access

// Tier is a caller's privilege level relative to a specific entity. Higher
// values strictly include the operations of lower ones.
type Tier int

const (
	TierAnonymous Tier = iota
	TierMember
	TierBoardMember
	TierAssignee
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierMember:
		return "member"
	case TierBoardMember:
		return "board_member"
	case TierAssignee:
		return "assignee"
	case TierAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Operation names a domain operation that requires a privilege decision.
type Operation string

const (
	OpTeamRead        Operation = "team.read"
	OpUserList        Operation = "user.list"
	OpUserBoardToggle Operation = "user.board_toggle"
	OpUserDelete      Operation = "user.delete"
	OpBoardList       Operation = "board.list"
	OpBoardRead       Operation = "board.read"
	OpBoardCreate     Operation = "board.create"
	OpBoardRename     Operation = "board.rename"
	OpBoardDelete     Operation = "board.delete"
	OpColumnList      Operation = "column.list"
	OpColumnBulkPatch Operation = "column.bulk_patch"
	OpTaskList        Operation = "task.list"
	OpTaskCreate      Operation = "task.create"
	OpTaskPatch       Operation = "task.patch"
	OpTaskDelete      Operation = "task.delete"
	OpSubtaskList     Operation = "subtask.list"
	OpSubtaskPatch    Operation = "subtask.patch"
)

// grants lists the minimum tier satisfying each operation. Read-only,
// team-scoped operations admit plain members; the assignee carve-outs cover
// exactly task patch, subtask patch, and the per-item bulk column patch;
// everything mutating beyond that is admin-only.
var grants = map[Operation]Tier{
	OpTeamRead:        TierAdmin,
	OpUserList:        TierMember,
	OpUserBoardToggle: TierAdmin,
	OpUserDelete:      TierAdmin,
	OpBoardList:       TierMember,
	OpBoardRead:       TierBoardMember,
	OpBoardCreate:     TierAdmin,
	OpBoardRename:     TierAdmin,
	OpBoardDelete:     TierAdmin,
	OpColumnList:      TierMember,
	OpColumnBulkPatch: TierAssignee,
	OpTaskList:        TierMember,
	OpTaskCreate:      TierAdmin,
	OpTaskPatch:       TierAssignee,
	OpTaskDelete:      TierAdmin,
	OpSubtaskList:     TierMember,
	OpSubtaskPatch:    TierAssignee,
}

// Allowed reports whether a caller at the given tier may perform op.
func Allowed(op Operation, tier Tier) bool {
	min, ok := grants[op]
	if !ok {
		return false
	}
	return tier >= min
}
