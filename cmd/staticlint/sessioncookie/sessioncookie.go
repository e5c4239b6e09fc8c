// Package sessioncookie defines an analyzer that keeps cookie writing inside
// the auth package.
package sessioncookie

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to net/http.SetCookie made outside an internal/auth package.
var Analyzer = &analysis.Analyzer{
	Name: "sessioncookie",
	Doc:  "reports http.SetCookie calls outside internal/auth",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if isAuthPackage(pass.Pkg.Path()) {
		return nil, nil
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if ok && fn.Pkg() != nil && fn.Pkg().Path() == "net/http" && fn.Name() == "SetCookie" {
				pass.Reportf(call.Pos(), "cookies must be written through the auth package")
			}

			return true
		})
	}

	return nil, nil
}

func isAuthPackage(path string) bool {
	return strings.HasSuffix(path, "/internal/auth") || strings.Contains(path, "/internal/auth/")
}
