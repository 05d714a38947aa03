package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseSingleExpr parses src as a single top-level expression statement
// and returns its expression.
func parseSingleExpr(t *testing.T, src string) Expr {
	t.Helper()
	stmts, err := NewParser(src).Parse()
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	exprStmt, ok := stmts[0].(*ExprStmt)
	require.True(t, ok, "expected a single expression statement")
	return exprStmt.X
}

// TestParser_PrecedenceClimbing checks that
// "1 + 2 * 3 < 4 == 5" parses as Eq(Lt(Add(1, Mul(2,3)), 4), 5).
func TestParser_PrecedenceClimbing(t *testing.T) {
	expr := parseSingleExpr(t, "1 + 2 * 3 < 4 == 5")

	eq, ok := expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "==", eq.Op)

	lt, ok := eq.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "<", lt.Op)

	five, ok := eq.Right.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "5", five.Raw)

	add, ok := lt.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	four, ok := lt.Right.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "4", four.Raw)

	one, ok := add.Left.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "1", one.Raw)

	mul, ok := add.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

// TestParser_PostfixChaining checks that
// "a.b.c[i].d" parses as MemberAccess(Index(MemberAccess(MemberAccess(a,b),c), i), d).
func TestParser_PostfixChaining(t *testing.T) {
	expr := parseSingleExpr(t, "a.b.c[i].d")

	outerMember, ok := expr.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "d", outerMember.Member)

	index, ok := outerMember.Base.(*IndexExpr)
	require.True(t, ok)

	indexVar, ok := index.Index.(*VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "i", indexVar.Name)

	cMember, ok := index.Base.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "c", cMember.Member)

	bMember, ok := cMember.Base.(*MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "b", bMember.Member)

	aVar, ok := bMember.Base.(*VariableExpr)
	require.True(t, ok)
	assert.Equal(t, "a", aVar.Name)
}

func TestParser_FunctionDecl(t *testing.T) {
	src := `def add(a: int, b: int) -> int
  return a + b
end`
	stmts, err := NewParser(src).Parse()
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	fn, ok := stmts[0].(*FuncDeclStmt)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "int", fn.ReturnName)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, Param{Name: "a", TypeName: "int"}, fn.Params[0])
	require.Len(t, fn.Body.Stmts, 1)
}

func TestParser_Extern(t *testing.T) {
	stmts, err := NewParser("extern def print_int(val: int)").Parse()
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	fn, ok := stmts[0].(*FuncDeclStmt)
	require.True(t, ok)
	assert.Nil(t, fn.Body)
}

func TestParser_Struct(t *testing.T) {
	src := `struct Point
  x : int
  y : int
end`
	stmts, err := NewParser(src).Parse()
	require.NoError(t, err)
	st, ok := stmts[0].(*StructDeclStmt)
	require.True(t, ok)
	assert.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "y", st.Fields[1].Name)
}

func TestParser_ArrayTypeSuffix(t *testing.T) {
	stmts, err := NewParser("def f(xs: int[][]) end").Parse()
	require.NoError(t, err)
	fn := stmts[0].(*FuncDeclStmt)
	assert.Equal(t, "int[][]", fn.Params[0].TypeName)
}

func TestParser_IfElse(t *testing.T) {
	src := `if n < 0
  return 0
else
  return 1
end`
	stmts, err := NewParser(src).Parse()
	require.NoError(t, err)
	ifStmt, ok := stmts[0].(*IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)
	require.Len(t, ifStmt.Then.Stmts, 1)
	require.Len(t, ifStmt.Else.Stmts, 1)
}

func TestParser_While(t *testing.T) {
	stmts, err := NewParser("while i < 10\n  i = i + 1\nend").Parse()
	require.NoError(t, err)
	_, ok := stmts[0].(*WhileStmt)
	assert.True(t, ok)
}

func TestParser_ForLoop(t *testing.T) {
	src := "for var i: int = 0, i < 10, i = i + 1\n  print_int(i)\nend"
	stmts, err := NewParser(src).Parse()
	require.NoError(t, err)
	forStmt, ok := stmts[0].(*ForStmt)
	require.True(t, ok)
	_, ok = forStmt.Init.(*VarDeclStmt)
	assert.True(t, ok)
	_, ok = forStmt.Post.(*ExprStmt)
	assert.True(t, ok)
}

func TestParser_ArrayLiteral(t *testing.T) {
	expr := parseSingleExpr(t, "[10, 20, 30]")
	lit, ok := expr.(*ArrayLiteralExpr)
	require.True(t, ok)
	assert.Len(t, lit.Elements, 3)
}

func TestParser_CallIsPrimaryOnly(t *testing.T) {
	// The grammar allows a call only directly as a primary
	// (ident "(" args? ")"), never as a postfix after member access.
	expr := parseSingleExpr(t, "foo(1, 2)")
	call, ok := expr.(*CallExpr)
	require.True(t, ok)
	assert.Equal(t, "foo", call.Callee)
	assert.Len(t, call.Args, 2)
}

func TestParser_UnexpectedTokenReportsDiagnostic(t *testing.T) {
	_, err := NewParser("def (a: int) end").Parse()
	require.Error(t, err)
}
