package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "request.json")
	content := `{"ambiente":"DEV","token":"placeholder","filename":"f","jsonData":{"n":1.10}}`
	require.NoError(t, os.WriteFile(fname, []byte(content), 0644))

	request, err := readRequest(fname, "")
	if err != nil {
		t.Fatalf("Failed to read request: %v", err)
	}
	assert.Equal(t, `"placeholder"`, string(request["token"]))
	assert.Equal(t, `{"n":1.10}`, string(request["jsonData"]))

	request, err = readRequest(fname, "real-token")
	require.NoError(t, err)
	assert.Equal(t, `"real-token"`, string(request["token"]))

	_, err = readRequest(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}

func TestReadRequestRejectsNonObject(t *testing.T) {
	for _, content := range []string{"null", "[1,2]", `"text"`} {
		fname := filepath.Join(t.TempDir(), "request.json")
		require.NoError(t, os.WriteFile(fname, []byte(content), 0644))

		_, err := readRequest(fname, "real-token")
		assert.Error(t, err, "Request file %s should be rejected", content)
	}
}
