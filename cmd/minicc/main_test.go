package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.mc")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestHandler_MissingInputFile(t *testing.T) {
	status := Handler(nil, map[string]string{})
	assert.Equal(t, exitMissingInput, status)
}

func TestHandler_InputNotFound(t *testing.T) {
	status := Handler([]string{"/nonexistent/path/in.mc"}, map[string]string{})
	assert.Equal(t, exitInputNotFound, status)
}

func TestHandler_ConflictingStageFlags(t *testing.T) {
	path := writeSource(t, `int main() { return 0; }`)
	status := Handler([]string{path}, map[string]string{"lex": "true", "yacc": "true"})
	assert.Equal(t, exitConflictingStage, status)
}

func TestHandler_LexStageSucceeds(t *testing.T) {
	path := writeSource(t, `int main() { return 0; }`)
	out := filepath.Join(t.TempDir(), "out.txt")
	status := Handler([]string{path}, map[string]string{"lex": "true", "o": out})
	assert.Equal(t, exitOK, status)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "int")
}

func TestHandler_YaccStageSucceeds(t *testing.T) {
	path := writeSource(t, `int main() { return 0; }`)
	out := filepath.Join(t.TempDir(), "out.txt")
	status := Handler([]string{path}, map[string]string{"yacc": "true", "o": out})
	assert.Equal(t, exitOK, status)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "IntFunc")
}

func TestHandler_SyntaxErrorExitsParserError(t *testing.T) {
	path := writeSource(t, `int main( { return 0; }`)
	status := Handler([]string{path}, map[string]string{})
	assert.Equal(t, exitParserError, status)
}

func TestHandler_SemanticErrorExitsSemanticError(t *testing.T) {
	path := writeSource(t, `void f() { return 1; }`)
	status := Handler([]string{path}, map[string]string{})
	assert.Equal(t, exitSemanticError, status)
}

func TestHandler_FullPipelineEmitsLLVMIR(t *testing.T) {
	path := writeSource(t, `int main() { return 0; }`)
	out := filepath.Join(t.TempDir(), "out.ll")
	status := Handler([]string{path}, map[string]string{"o": out})
	assert.Equal(t, exitOK, status)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "define i32 @main")
	assert.Contains(t, string(content), "!llvm.module.flags")
}

func TestHandler_AnalyzeStageDumpsJSON(t *testing.T) {
	path := writeSource(t, `int main() { return 0; }`)
	out := filepath.Join(t.TempDir(), "out.json")
	status := Handler([]string{path}, map[string]string{"analyze": "true", "json": "true", "o": out})
	assert.Equal(t, exitOK, status)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "\"Op\"")
}
