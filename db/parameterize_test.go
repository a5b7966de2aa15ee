package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParameterize(t *testing.T) {

	tests := []struct {
		name   string
		tpl    string
		params []string
		body   string
		isErr  bool
	}{
		{
			name: "string and date params",
			tpl: strings.Join([]string{
				"WITH args AS (",
				"    SELECT",
				"         'rose' AS FlowerName    /* @param */",
				"        ,date('2026-03-15') AS PriceDate    /* @param */",
				")",
				"SELECT price FROM daily_prices",
			}, "\n"),
			params: []string{"FlowerName", "PriceDate"},
			body: strings.Join([]string{
				"WITH args AS (",
				"    SELECT",
				"         :FlowerName AS FlowerName    /* @param */",
				"        ,:PriceDate AS PriceDate    /* @param */",
				")",
				"SELECT price FROM daily_prices",
			}, "\n"),
		},
		{
			name:   "number param",
			tpl:    "SELECT 15 AS HereLimit    /* @param */",
			params: []string{"HereLimit"},
			body:   "SELECT :HereLimit AS HereLimit    /* @param */",
		},
		{
			name:   "real number param",
			tpl:    "SELECT 120.5 AS Price    /* @param */",
			params: []string{"Price"},
			body:   "SELECT :Price AS Price    /* @param */",
		},
		{
			name:   "unicode string param",
			tpl:    "SELECT 'ரோஜா' AS DisplayName    /* @param */",
			params: []string{"DisplayName"},
			body:   "SELECT :DisplayName AS DisplayName    /* @param */",
		},
		{
			name:  "no params is an error",
			tpl:   "SELECT name FROM flowers",
			isErr: true,
		},
		{
			name:  "unmarked values are not parameters",
			tpl:   "SELECT 'rose' AS FlowerName",
			isErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parameterize([]byte(tt.tpl))
			if (err != nil) != tt.isErr {
				t.Fatalf("error %v, expected error %t", err, tt.isErr)
			}
			if tt.isErr {
				return
			}
			if diff := cmp.Diff(tt.params, got.Parameters); diff != "" {
				t.Errorf("parameters mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.body, string(got.Body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestParameterizeAllFiles checks every sql file other than the schema
// parses with at least one parameter or, for the schema, is readable.
func TestParameterizeAllFiles(t *testing.T) {

	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}
	entries, err := fs.ReadDir(sqlFS, ".")
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == schemaSQL {
			continue
		}
		t.Run(name, func(t *testing.T) {
			tpl, err := ParameterizeFile(sqlFS, name)
			if err != nil {
				t.Fatalf("could not parameterize %q: %v", name, err)
			}
			if len(tpl.Parameters) == 0 {
				t.Errorf("no parameters found in %q", name)
			}
		})
	}
}
