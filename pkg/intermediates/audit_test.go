package intermediates

import (
	"strings"
	"testing"
)

func TestAuditRenderIsDeterministic(t *testing.T) {
	build := func() *Audit {
		a := NewAudit()
		a.RecordNull("Identificacion", "Iden_Sexo", "p3")
		a.RecordNull("Antropometria", "AN_Peso", "p1")
		a.RecordNull("Antropometria", "AN_Talla", "p2")
		a.RecordDuplicate("pacientes", "p4")
		a.RecordDuplicate("pacientes", "p5")
		return a
	}

	first := build().Render()
	second := build().Render()
	if first != second {
		t.Fatal("expected identical reports for identical audits")
	}

	for _, want := range []string{"Antropometria", "AN_Peso", "id: p1", "id: p4", "pacientes"} {
		if !strings.Contains(first, want) {
			t.Fatalf("report missing %q:\n%s", want, first)
		}
	}
}

func TestAuditCounts(t *testing.T) {
	a := NewAudit()
	if !a.Empty() {
		t.Fatal("new audit should be empty")
	}

	a.RecordNull("Antropometria", "AN_PC", "p1")
	a.RecordNull("Antropometria", "AN_PC", "p2")
	a.RecordDuplicate("pacientes", "p3")

	if a.Empty() {
		t.Fatal("audit with records should not be empty")
	}
	if got := a.NullDropCount("Antropometria", "AN_PC"); got != 2 {
		t.Fatalf("expected 2 null drops, got %d", got)
	}
	if got := a.DuplicateDropCount("pacientes"); got != 1 {
		t.Fatalf("expected 1 duplicate drop, got %d", got)
	}

	summary := a.Summary()
	nulls := summary["null_drops"].(map[string]interface{})
	perCol := nulls["Antropometria"].(map[string]interface{})
	if perCol["AN_PC"].(int) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
