// Package storage persists the task board's resource tree over database/sql.
//
// The same SQLStore runs on sqlite3 (development, tests) and postgres
// (production); queries use $N placeholders, which both drivers accept, and
// the only dialect branches are id generation on insert and the serial
// column type in migrations.
//
// Cascading deletes live in the schema: removing any ancestor removes its
// whole subtree in a single statement, and CheckIntegrity verifies the tree
// stayed connected.
package storage
