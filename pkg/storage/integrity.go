package storage

import (
	"context"
	"fmt"
)

// IntegrityReport counts entities whose ownership chain is broken. The
// schema's cascading foreign keys should keep every count at zero; nonzero
// counts mean rows were written out-of-band and the tree is no longer fully
// connected.
type IntegrityReport struct {
	OrphanColumns  int64 `json:"orphan_columns"`
	OrphanTasks    int64 `json:"orphan_tasks"`
	OrphanSubtasks int64 `json:"orphan_subtasks"`
}

// Clean reports whether the ownership tree is fully connected.
func (r *IntegrityReport) Clean() bool {
	return r.OrphanColumns == 0 && r.OrphanTasks == 0 && r.OrphanSubtasks == 0
}

// CheckIntegrity walks the ownership chain looking for orphans. Run
// periodically by the integrity sweep.
func (s *SQLStore) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	checks := []struct {
		dest  *int64
		query string
	}{
		{&report.OrphanColumns,
			`SELECT COUNT(*) FROM columns c
			 LEFT JOIN boards b ON b.id = c.board_id WHERE b.id IS NULL`},
		{&report.OrphanTasks,
			`SELECT COUNT(*) FROM tasks t
			 LEFT JOIN columns c ON c.id = t.column_id WHERE c.id IS NULL`},
		{&report.OrphanSubtasks,
			`SELECT COUNT(*) FROM subtasks st
			 LEFT JOIN tasks t ON t.id = st.task_id WHERE t.id IS NULL`},
	}

	for _, check := range checks {
		if err := s.q.QueryRowContext(ctx, check.query).Scan(check.dest); err != nil {
			return nil, fmt.Errorf("check integrity: %w", err)
		}
	}
	return report, nil
}
