package store

import (
	"testing"

	"entgo.io/ent"
	entschema "entgo.io/ent/dialect/sql/schema"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/coursekit/ent/schema"
)

func fieldNames(fields ...[]ent.Field) []string {
	var names []string
	for _, fs := range fields {
		for _, f := range fs {
			names = append(names, f.Descriptor().Name)
		}
	}
	return names
}

func columnNames(t *entschema.Table) []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// The migrated tables are written out by hand; keep them in step with the
// declarative schema.
func TestTablesMatchSchema(t *testing.T) {
	kv := fieldNames(schema.KVEntry{}.Fields())
	assert.ElementsMatch(t, kv, columnNames(KvEntriesTable))

	ev := append([]string{"id"}, fieldNames(schema.EventMixin{}.Fields(), schema.LLMRequestEvent{}.Fields())...)
	assert.ElementsMatch(t, ev, columnNames(LlmRequestEventsTable))
}

func TestTablesIndexes(t *testing.T) {
	want := map[string]string{
		"llmrequestevent_purpose": "purpose",
		"llmrequestevent_session": "session",
	}
	idxs := LlmRequestEventsTable.Indexes
	if len(idxs) != len(want) {
		t.Fatalf("indexes = %d, want %d", len(idxs), len(want))
	}
	for _, idx := range idxs {
		col, ok := want[idx.Name]
		if !ok {
			t.Errorf("unexpected index %q", idx.Name)
			continue
		}
		if len(idx.Columns) != 1 || idx.Columns[0].Name != col {
			t.Errorf("index %q columns = %v, want [%s]", idx.Name, columnNames(&entschema.Table{Columns: idx.Columns}), col)
		}
		if idx.Unique {
			t.Errorf("index %q should not be unique", idx.Name)
		}
	}
	assert.Len(t, schema.LLMRequestEvent{}.Indexes(), len(want))
}
