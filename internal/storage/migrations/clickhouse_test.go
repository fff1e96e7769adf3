package migrations

import "testing"

func TestSplitStatements(t *testing.T) {
	sql := `-- candles schema
CREATE TABLE IF NOT EXISTS candles (ts Int64) ENGINE = ReplacingMergeTree ORDER BY ts;

-- second statement
CREATE TABLE IF NOT EXISTS market_snapshots (ts Int64) ENGINE = ReplacingMergeTree ORDER BY ts;
`

	stmts := splitStatements(sql)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(stmts), stmts)
	}
	for i, stmt := range stmts {
		if stmt == "" {
			t.Errorf("statement %d is empty", i)
		}
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain ddl", "CREATE TABLE t (x Int64);", false},
		{"literal without semicolon", "SELECT 'nifty';", false},
		{"escaped quote", "SELECT 'it''s fine';", false},
		{"semicolon in literal", "SELECT 'a;b';", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNoSemicolonInStrings(tt.sql)
			if tt.wantErr && err == nil {
				t.Error("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/edge_lab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "edge_lab" {
		t.Errorf("expected edge_lab, got %s", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
}
