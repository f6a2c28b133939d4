package main

import (
	"strings"
	"testing"
)

func TestParseSeedFile(t *testing.T) {
	members, err := parseSeedFile([]byte(`
members:
  - name: Imane
  - name: " Karim "
    active: true
  - name: Former
    active: false
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	if members[1].Name != "Karim" || !members[0].IsActive || members[2].IsActive {
		t.Fatalf("unexpected members %+v %+v %+v", members[0], members[1], members[2])
	}
}

func TestParseSeedFileRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"blank name", "members:\n  - name: ''\n", "name is required"},
		{"admin reserved", "members:\n  - name: Admin\n", "reserved"},
		{"duplicate", "members:\n  - name: Imane\n  - name: Imane\n", "duplicate"},
		{"not yaml", "members: [", "parse seed file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeedFile([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
