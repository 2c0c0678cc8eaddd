// Package schemas holds the JSON Schemas for the data exchanged with the
// ranker's collaborators and written by the CLI.
package schemas

import (
	"embed"
	"io/fs"
	"sort"
)

// Schema file names.
const (
	JDVariants   = "jd_variants.schema.json"
	Ranking      = "ranking.schema.json"
	ResumeRecord = "resume_record.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the raw content of an embedded schema.
func Read(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Names lists the embedded schema files in lexical order.
func Names() []string {
	matches, _ := fs.Glob(files, "*.schema.json")
	sort.Strings(matches)
	return matches
}
