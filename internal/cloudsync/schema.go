package cloudsync

import (
	"fmt"
	"strings"
)

type table struct {
	name string
}

var (
	moviesTable = table{name: "movies"}
	listsTable  = table{name: "lists"}
	itemsTable  = table{name: "list_items"}

	tables = []table{moviesTable, listsTable, itemsTable}
)

func (t table) createSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, id)
)`, t.name)
}

func (t table) selectSQL() string {
	return fmt.Sprintf(`SELECT data FROM %s WHERE user_id = $1 ORDER BY id`, t.name)
}

// upsertSQL builds a multi-row upsert for rows records of four columns.
func (t table) upsertSQL(rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (user_id, id, data, updated_at) VALUES ", t.name)
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
	}
	b.WriteString(" ON CONFLICT (user_id, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at")
	return b.String()
}

// batches splits n rows into [start, end) ranges of at most size.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
