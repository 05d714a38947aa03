package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_LoopSum(t *testing.T) {
	src := `
extern def print_int(val: int)

def main()
  var total: int = 0
  var i: int = 1
  while i < 11
    total = total + i
    i = i + 1
  end
  print_int(total)
end
`
	var log bytes.Buffer
	module, err := Compile(src, &log)
	require.NoError(t, err)
	require.NotNil(t, module.lookupFunction("main"))
	assert.Contains(t, log.String(), "compiler: done")
}

func TestCompile_ArrayLiteralAndIndex(t *testing.T) {
	src := `
extern def print_int(val: int)

def main()
  var a = [10, 20, 30]
  print_int(a[1] + a[2])
end
`
	_, err := Compile(src, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestCompile_ParseErrorAborts(t *testing.T) {
	_, err := Compile("def (a: int) end", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCompile_SemanticErrorAborts(t *testing.T) {
	_, err := Compile("var x = undefined_name", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCompile_NilWriterDefaultsToStderr(t *testing.T) {
	// Compile must not panic when out is nil.
	_, err := Compile("var x = 1", nil)
	assert.NoError(t, err)
}
