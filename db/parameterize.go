package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// SQLTemplate holds an sql file parsed into a named-parameter query, with the
// example values replaced by sqlx named bind variables and the parameter names
// extracted in order of appearance.
type SQLTemplate struct {
	Body       []byte
	Parameters []string
}

// String provides a printable representation.
func (s SQLTemplate) String() string {
	return fmt.Sprintf("\nParams: %s\nBody:   %s\n",
		strings.Join(s.Parameters, ", "),
		string(s.Body),
	)
}

// The sql files in this project are runnable as-is on the sqlite command line,
// with each query variable declared inline with an example value and an
// `/* @param */` marker, for example:
//
//	,date('2026-03-15') AS SheetDate    /* @param */
//
// parameterization extracts `SheetDate` as a parameter and rewrites the
// example value as a named bind variable:
//
//	,:SheetDate AS SheetDate    /* @param */
//
// The spacing around the marker needs to be precise.
var (
	valueAtoms = []string{
		`(?:date\('[^']+'\))`,        // date('2026-03-15')
		`(?:[a-zA-Z_]\w*\([^\)]*\))`, // any_func(...)
		`(?:'[^']*')`,                // 'a string' or ''
		`(?:-?\d*\.?\d+)`,            // 123 or 1.23 or -5
		`(?:null)`,                   // null
	}

	// regexpParam is built from four named components, with the example
	// `value` element made up of the non-capturing valueAtoms.
	regexpParam = regexp.MustCompile(fmt.Sprintf(
		`(?P<value>%s)(?P<as>\s+AS\s+)(?P<param>[A-Za-z0-9_]+)(?P<end>\s+/\* @param \*/)`,
		strings.Join(valueAtoms, "|"),
	))
)

// parameterize parses an sql template, replacing each marked example value
// with a named bind variable and collecting the parameter names. A template
// with no parameters is an error; parameterless queries are run inline rather
// than through this mechanism.
func parameterize(tpl []byte) (*SQLTemplate, error) {

	matches := regexpParam.FindAllSubmatch(tpl, -1)
	if len(matches) == 0 {
		return nil, errors.New("parameterize: no parameters found")
	}

	st := &SQLTemplate{
		Parameters: make([]string, len(matches)),
	}
	paramIdx := regexpParam.SubexpIndex("param")
	for i := range matches {
		st.Parameters[i] = string(matches[i][paramIdx])
	}
	st.Body = regexpParam.ReplaceAll(tpl, []byte(`:${param}${as}${param}${end}`))
	return st, nil
}

// ParameterizeFile reads an sql file from the provided fs.FS and returns its
// parsed SQLTemplate.
func ParameterizeFile(fileFS fs.FS, filePath string) (*SQLTemplate, error) {
	fileBytes, err := fs.ReadFile(fileFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("file read error: %w", err)
	}
	tpl, err := parameterize(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("query template error for %q: %w", filePath, err)
	}
	return tpl, nil
}
