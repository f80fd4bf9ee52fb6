package intermediates

import (
	"fmt"
	"sort"
	"strings"
)

// Audit collects the records excluded while building the tables: rows with
// null values in required columns and rows sharing a duplicated
// (Iden_Sede, Iden_Codigo) pair. The rendered report lets the clinical team
// repair the export and re-run the job.
type Audit struct {
	nullDrops map[string]map[string][]string
	dupDrops  map[string][]string
}

func NewAudit() *Audit {
	return &Audit{
		nullDrops: make(map[string]map[string][]string),
		dupDrops:  make(map[string][]string),
	}
}

// RecordNull notes that record id was excluded from table because column
// had no value.
func (a *Audit) RecordNull(table, column, id string) {
	cols, ok := a.nullDrops[table]
	if !ok {
		cols = make(map[string][]string)
		a.nullDrops[table] = cols
	}
	cols[column] = append(cols[column], id)
}

// RecordDuplicate notes that record id was excluded from table because its
// (Iden_Sede, Iden_Codigo) pair appears more than once.
func (a *Audit) RecordDuplicate(table, id string) {
	a.dupDrops[table] = append(a.dupDrops[table], id)
}

func (a *Audit) Empty() bool {
	return len(a.nullDrops) == 0 && len(a.dupDrops) == 0
}

// NullDropCount returns how many exclusions were recorded for a column,
// mostly for tests and run statistics.
func (a *Audit) NullDropCount(table, column string) int {
	return len(a.nullDrops[table][column])
}

func (a *Audit) DuplicateDropCount(table string) int {
	return len(a.dupDrops[table])
}

// Render produces the operator-facing drop report. Tables and columns are
// sorted so two runs over the same input render byte-identical reports.
func (a *Audit) Render() string {
	var b strings.Builder

	b.WriteString("Rows excluded for null values:\n")
	for _, table := range sortedKeys(a.nullDrops) {
		cols := a.nullDrops[table]
		colNames := make([]string, 0, len(cols))
		for col := range cols {
			colNames = append(colNames, col)
		}
		sort.Strings(colNames)
		for _, col := range colNames {
			fmt.Fprintf(&b, "Table %q, column %q:\n", table, col)
			for _, id := range cols[col] {
				fmt.Fprintf(&b, "  id: %s\n", id)
			}
		}
	}

	b.WriteString("Rows excluded for duplicated (Iden_Sede, Iden_Codigo):\n")
	tables := make([]string, 0, len(a.dupDrops))
	for table := range a.dupDrops {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(&b, "Table %q:\n", table)
		for _, id := range a.dupDrops[table] {
			fmt.Fprintf(&b, "  id: %s\n", id)
		}
	}

	return b.String()
}

// Summary flattens the audit into counters for the run record and the
// refresh event.
func (a *Audit) Summary() map[string]interface{} {
	nulls := make(map[string]interface{})
	for table, cols := range a.nullDrops {
		perCol := make(map[string]interface{}, len(cols))
		for col, ids := range cols {
			perCol[col] = len(ids)
		}
		nulls[table] = perCol
	}
	dups := make(map[string]interface{})
	for table, ids := range a.dupDrops {
		dups[table] = len(ids)
	}
	return map[string]interface{}{
		"null_drops":      nulls,
		"duplicate_drops": dups,
	}
}

func sortedKeys(m map[string]map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
