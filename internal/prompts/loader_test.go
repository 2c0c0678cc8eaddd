package prompts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("expansion.json", "generate-jd-variants", map[string]string{
		"Count":          "2",
		"JobDescription": "Go engineer",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "generate 2 alternative")
	assert.Contains(t, out, "exactly 2 strings")
	assert.Contains(t, out, "Go engineer")
	assert.NotContains(t, out, "{{")
}

func TestRender_DataIsNotExpanded(t *testing.T) {
	out, err := Render("expansion.json", "generate-jd-variants", map[string]string{
		"Count":          "1",
		"JobDescription": "Use {{.Count}} literally",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Use {{.Count}} literally")
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("nonexistent.json", "some-key", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = Render("expansion.json", "nonexistent-key", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = Render("expansion.json", "generate-jd-variants", map[string]string{"Count": "2"})
	assert.Error(t, err, "missing placeholder values are rejected")
}

func TestKeys(t *testing.T) {
	keys, err := Keys("expansion.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"generate-jd-variants"}, keys)
}

func TestParseAll(t *testing.T) {
	lib, err := parseAll(fstest.MapFS{
		"a.json": {Data: []byte(`{"greet": "hi {{.Name}}", "bye": "bye"}`)},
	})
	require.NoError(t, err)
	assert.Len(t, lib["a.json"], 2)

	_, err = parseAll(fstest.MapFS{"bad.json": {Data: []byte(`{"x": `)}})
	assert.ErrorContains(t, err, "failed to parse prompt file")

	_, err = parseAll(fstest.MapFS{"bad.json": {Data: []byte(`{"x": "{{.Broken"}`)}})
	assert.ErrorContains(t, err, "bad.json/x")
}
