package migrations

import "embed"

// PostgresFS holds the run/report/audit schema, applied in lexical order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the candle/snapshot schema, applied in lexical order.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
