package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"silverrail/internal/config"
)

const defaultMaxCmdConstructorLines = 100

// Command constructors only wire flags and delegate; bulky RunE bodies
// belong in helpers.
func TestCommandConstructorsStaySmall(t *testing.T) {
	limit := maxCmdConstructorLines()
	paths, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob sources: %v", err)
	}

	fset := token.NewFileSet()
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		ast.Inspect(file, func(n ast.Node) bool {
			fn, ok := n.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				return true
			}
			name := fn.Name.Name
			if !strings.HasPrefix(name, "new") || !strings.HasSuffix(name, "Cmd") {
				return false
			}
			lines := fset.Position(fn.Body.Rbrace).Line - fset.Position(fn.Body.Lbrace).Line + 1
			if lines > limit {
				t.Errorf("%s in %s spans %d lines (max %d)", name, path, lines, limit)
			}
			return false
		})
	}
}

func TestEveryCommandHasShortHelp(t *testing.T) {
	cfg := config.Default()
	root := newRootCmd(&cfg)
	for _, path := range leafCommandPaths(root, nil) {
		cmd, _, err := root.Find(strings.Fields(path))
		if err != nil {
			t.Fatalf("find %q: %v", path, err)
		}
		if strings.TrimSpace(cmd.Short) == "" {
			t.Errorf("command %q has no short help", path)
		}
		if cmd.RunE == nil {
			t.Errorf("command %q has no RunE", path)
		}
	}
}

func maxCmdConstructorLines() int {
	if parsed, err := strconv.Atoi(strings.TrimSpace(os.Getenv("SILVERRAIL_MAX_CMD_CONSTRUCTOR_LINES"))); err == nil && parsed > 0 {
		return parsed
	}
	return defaultMaxCmdConstructorLines
}
