package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vitalcoach-backend/internal/database"
)

func createTableDDL(t *testing.T, table string) string {
	t.Helper()
	prefix := "CREATE TABLE IF NOT EXISTS " + table + " ("
	for _, stmt := range database.SchemaStatements {
		if strings.HasPrefix(stmt, prefix) {
			return stmt
		}
	}
	require.Failf(t, "missing table", "no CREATE TABLE for %s", table)
	return ""
}

func TestQueryColumnsExistInSchema(t *testing.T) {
	tests := []struct {
		table   string
		columns string
	}{
		{"plans", planColumns},
		{"chat_turns", turnColumns},
		{"plan_revisions", revisionColumns},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			ddl := createTableDDL(t, tt.table)
			for _, col := range strings.Split(tt.columns, ",") {
				col = strings.TrimSpace(col)
				defined := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(col) + `\s`)
				assert.True(t, defined.MatchString(ddl), "column %s.%s is queried but not created", tt.table, col)
			}
		})
	}
}
