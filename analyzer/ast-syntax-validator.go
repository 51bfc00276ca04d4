package analyzer

import (
	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/sparrow/analyzer/util"
	"github.com/pattyshack/sparrow/ast"
)

type astSyntaxValidator struct {
	*parseutil.Emitter
}

func ValidateAstSyntax(emitter *parseutil.Emitter) util.Pass[*ast.Program] {
	return &astSyntaxValidator{
		Emitter: emitter,
	}
}

func (validator *astSyntaxValidator) Process(prog *ast.Program) {
	prog.Validate(validator.Emitter)
}
