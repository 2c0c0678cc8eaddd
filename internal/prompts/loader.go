// Package prompts holds the LLM prompt templates, embedded as JSON files that
// map a prompt key to a text/template body.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

type library map[string]map[string]*template.Template

// templates parses every embedded prompt file once.
var templates = sync.OnceValues(func() (library, error) {
	return parseAll(promptFiles)
})

func parseAll(fsys fs.FS) (library, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}

	lib := make(library, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}

		parsed := make(map[string]*template.Template, len(raw))
		for key, body := range raw {
			tmpl, err := template.New(path.Join(name, key)).Option("missingkey=error").Parse(body)
			if err != nil {
				return nil, fmt.Errorf("prompt %s/%s: %w", name, key, err)
			}
			parsed[key] = tmpl
		}
		lib[name] = parsed
	}
	return lib, nil
}

func lookup(filename, key string) (*template.Template, error) {
	lib, err := templates()
	if err != nil {
		return nil, err
	}
	file, ok := lib[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}
	tmpl, ok := file[key]
	if !ok {
		return nil, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// Render fills the prompt key of filename with data. Every placeholder must
// have a value.
func Render(filename, key string, data map[string]string) (string, error) {
	tmpl, err := lookup(filename, key)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", filename, key, err)
	}
	return sb.String(), nil
}

// Keys lists the prompt keys of filename in lexical order.
func Keys(filename string) ([]string, error) {
	lib, err := templates()
	if err != nil {
		return nil, err
	}
	file, ok := lib[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}
	keys := make([]string, 0, len(file))
	for key := range file {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
