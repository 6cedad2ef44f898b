package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogStation_PrimaryID(t *testing.T) {
	tests := []struct {
		name  string
		entry CatalogStation
		want  string
	}{
		{"wigos id set", CatalogStation{WIGOSID: "0-20000-0-06660", Identifiers: []CatalogIdentifier{{ID: "0-756-0-06660"}}}, "0-20000-0-06660"},
		{"falls back to first identifier", CatalogStation{Identifiers: []CatalogIdentifier{{ID: "0-756-0-06660"}, {ID: "other"}}}, "0-756-0-06660"},
		{"nothing", CatalogStation{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.PrimaryID())
		})
	}
}

func TestCatalogStation_Aliases(t *testing.T) {
	entry := CatalogStation{
		WIGOSID: "0-20000-0-06660",
		Identifiers: []CatalogIdentifier{
			{ID: "0-20000-0-06660", Primary: true},
			{ID: "0-756-0-06660"},
			{ID: ""},
			{ID: "0-20000-0-06660"},
		},
	}
	assert.Equal(t, []string{"0-756-0-06660"}, entry.Aliases())
}
