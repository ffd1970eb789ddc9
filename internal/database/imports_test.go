package database

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackageDoesNotImportTesting(t *testing.T) {
	req := require.New(t)

	files, err := filepath.Glob("*.go")
	req.NoError(err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		req.NoError(err)
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			req.NoError(err)
			req.NotEqual("testing", path, "%s imports testing", name)
		}
	}
}
