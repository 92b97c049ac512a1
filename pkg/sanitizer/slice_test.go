package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeCategories(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "lowercase and underscore",
			input: []string{"Entrenamiento Grupal", "ASESORIA"},
			want:  []string{"entrenamiento_grupal", "asesoria"},
		},
		{
			name:  "remove duplicates after normalization",
			input: []string{"Entrenamiento Grupal", "entrenamiento-grupal", "ENTRENAMIENTO_GRUPAL"},
			want:  []string{"entrenamiento_grupal"},
		},
		{
			name:  "filter empty values",
			input: []string{"mentoria", "", "  ", "--"},
			want:  []string{"mentoria"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategories(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeCategories(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmails(t *testing.T) {
	got := NormalizeEmails([]string{"Ops@Academy.io", "ops@academy.io", "broken", "desk@academy.io"})
	want := []string{"ops@academy.io", "desk@academy.io"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeEmails() = %v, want %v", got, want)
	}
}
