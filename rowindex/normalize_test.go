package rowindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Acme", want: "acme"},
		{name: "trims whitespace", input: "  acme \t", want: "acme"},
		{name: "strips diacritics", input: "Telefónica", want: "telefonica"},
		{name: "mixed accents", input: " Crédito Agrícola ", want: "credito agricola"},
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "already normalized", input: "banca march", want: "banca march"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Acme", "  Telefónica ", "ÀÉÎÕÜ", "plain", "", " a  b "}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", s)
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{name: "plain day", date: "2024-03-05", want: "2024-03"},
		{name: "plain month", date: "2024-03", want: "2024-03"},
		{name: "rfc3339", date: "2024-03-05T10:30:00Z", want: "2024-03"},
		{name: "rfc3339 offset before midnight utc", date: "2024-04-01T00:30:00+02:00", want: "2024-03"},
		{name: "datetime with space", date: "2024-12-31 23:59:59", want: "2024-12"},
		{name: "slashes", date: "2024/07/15", want: "2024-07"},
		{name: "surrounding whitespace", date: " 2024-03-05 ", want: "2024-03"},
		{name: "garbage", date: "not a date", want: ""},
		{name: "empty", date: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthKey(tt.date))
		})
	}
}
