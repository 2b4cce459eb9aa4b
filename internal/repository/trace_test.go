package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// statementTrace records the order of statements as "<kind>:<table>". Reads carrying a
// locking clause are recorded as "lock:<table>", which SQLite otherwise drops silently.
type statementTrace struct {
	mu     sync.Mutex
	events []string
}

func traceStatements(t *testing.T, db *gorm.DB) *statementTrace {
	t.Helper()
	trace := &statementTrace{}

	record := func(kind string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			event := kind + ":" + tx.Statement.Table
			if _, locked := tx.Statement.Clauses["FOR"]; locked {
				event = "lock:" + tx.Statement.Table
			}
			trace.mu.Lock()
			trace.events = append(trace.events, event)
			trace.mu.Unlock()
		}
	}

	callbacks := db.Callback()
	require.NoError(t, callbacks.Query().After("gorm:query").Register("trace:query", record("query")))
	require.NoError(t, callbacks.Row().After("gorm:row").Register("trace:row", record("query")))
	require.NoError(t, callbacks.Create().After("gorm:create").Register("trace:create", record("create")))
	require.NoError(t, callbacks.Update().After("gorm:update").Register("trace:update", record("update")))
	require.NoError(t, callbacks.Delete().After("gorm:delete").Register("trace:delete", record("delete")))
	return trace
}

// first returns the position of the first matching event, or -1.
func (s *statementTrace) first(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e == event {
			return i
		}
	}
	return -1
}
