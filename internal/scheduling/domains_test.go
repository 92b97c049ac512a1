package scheduling

import (
	"reflect"
	"testing"
)

func TestConflictDomains(t *testing.T) {
	d := NewConflictDomains(map[string][]string{
		"entrenamiento": {"entrenamiento", "entrenamiento_grupal", "entrenamiento_privado"},
	})

	if !d.SameDomain("entrenamiento_grupal", "Entrenamiento Privado") {
		t.Error("training variants should share a domain")
	}
	if d.SameDomain("entrenamiento", "asesoria") {
		t.Error("unmapped category must not join another domain")
	}
	if !d.SameDomain("asesoria", "asesoria") {
		t.Error("unmapped category is its own domain")
	}
	if d.SameDomain("asesoria_trading", "asesoria") {
		t.Error("unmapped categories are never merged by prefix")
	}

	want := []string{"entrenamiento", "entrenamiento_grupal", "entrenamiento_privado"}
	if got := d.Peers("entrenamiento_privado"); !reflect.DeepEqual(got, want) {
		t.Errorf("Peers() = %v, want %v", got, want)
	}
	if got := d.Peers("asesoria"); !reflect.DeepEqual(got, []string{"asesoria"}) {
		t.Errorf("Peers(unmapped) = %v", got)
	}
}
