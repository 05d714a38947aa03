package compiler

import (
	"errors"
	"fmt"
)

// Analyzer performs one pre-order walk over the top-level item list: it
// resolves type names, decorates every expression node's type slot, and
// checks structural compatibility. It does not mutate AST structure, only
// the type slots and its own internal tables (universe, scope).
type Analyzer struct {
	universe      *Universe
	scope         *Scope
	currentReturn *Type
	errs          []error
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{universe: newUniverse(), scope: newScope(nil)}
}

func semanticError(format string, args ...interface{}) error {
	return fmt.Errorf("semantic error: "+format, args...)
}

func (a *Analyzer) fail(err error) {
	a.errs = append(a.errs, err)
}

// Analyze walks the top-level statement list once. Errors are accumulated
// rather than aborting immediately: analysis continues with Void as a
// recovery type so a single run reports every diagnostic it can find. The
// returned error is nil if no diagnostic was recorded.
func (a *Analyzer) Analyze(stmts []Stmt) error {
	for _, stmt := range stmts {
		a.analyzeTopLevel(stmt)
	}
	if len(a.errs) == 0 {
		return nil
	}
	return errors.Join(a.errs...)
}

func (a *Analyzer) analyzeTopLevel(stmt Stmt) {
	switch s := stmt.(type) {
	case *StructDeclStmt:
		a.analyzeStructDecl(s)
	case *FuncDeclStmt:
		a.analyzeFuncDecl(s)
	default:
		a.analyzeStatement(stmt)
	}
}

// Struct declarations are processed when encountered, so forward
// references to a struct require textual ordering before use.
func (a *Analyzer) analyzeStructDecl(s *StructDeclStmt) {
	fields := make([]StructField, 0, len(s.Fields))
	for _, f := range s.Fields {
		typ := a.resolve(f.TypeName)
		fields = append(fields, StructField{Name: f.Name, Type: typ})
	}
	structType := NewStructType(s.Name, fields)
	if !a.universe.declareStruct(s.Name, structType) {
		a.fail(semanticError("struct %s redeclared", s.Name))
	}
}

func (a *Analyzer) analyzeFuncDecl(s *FuncDeclStmt) {
	paramTypes := make([]*Type, len(s.Params))
	for i, p := range s.Params {
		paramTypes[i] = a.resolve(p.TypeName)
	}
	returnType := VoidType
	if s.ReturnName != "" {
		returnType = a.resolve(s.ReturnName)
	}
	fnType := NewFunctionType(paramTypes, returnType)

	// Registered before entering the body so self-recursion resolves.
	if !a.scope.declare(s.Name, fnType) {
		a.fail(semanticError("%s redeclared", s.Name))
	}

	if s.Body == nil {
		return // extern: declaration only
	}

	outerScope, outerReturn := a.scope, a.currentReturn
	a.scope = newScope(outerScope)
	a.currentReturn = returnType
	for i, p := range s.Params {
		a.scope.declare(p.Name, paramTypes[i])
	}
	a.analyzeBlock(s.Body)
	a.scope = outerScope
	a.currentReturn = outerReturn
}

func (a *Analyzer) analyzeBlock(b *BlockStmt) {
	outerScope := a.scope
	a.scope = newScope(outerScope)
	for _, stmt := range b.Stmts {
		a.analyzeStatement(stmt)
	}
	a.scope = outerScope
}

func (a *Analyzer) analyzeStatement(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		a.typeOf(s.X)
	case *VarDeclStmt:
		a.analyzeVarDecl(s)
	case *ReturnStmt:
		if s.Value != nil {
			a.typeOf(s.Value)
		}
		// Mismatch against the enclosing function's return type is a
		// known gap, left unenforced.
	case *BlockStmt:
		a.analyzeBlock(s)
	case *IfStmt:
		a.typeOf(s.Cond)
		a.analyzeBlock(s.Then)
		if s.Else != nil {
			a.analyzeBlock(s.Else)
		}
	case *WhileStmt:
		a.typeOf(s.Cond)
		a.analyzeBlock(s.Body)
	case *ForStmt:
		a.analyzeFor(s)
	case *FuncDeclStmt:
		a.analyzeFuncDecl(s)
	case *StructDeclStmt:
		a.analyzeStructDecl(s)
	default:
		a.fail(semanticError("unhandled statement type %T", stmt))
	}
}

// analyzeFor opens one scope spanning init/cond/post/body, since the
// init-clause's variable (if any) must be visible to cond, post and body.
func (a *Analyzer) analyzeFor(s *ForStmt) {
	outerScope := a.scope
	a.scope = newScope(outerScope)
	a.analyzeStatement(s.Init)
	a.typeOf(s.Cond)
	a.analyzeBlock(s.Body)
	a.analyzeStatement(s.Post)
	a.scope = outerScope
}

func (a *Analyzer) analyzeVarDecl(s *VarDeclStmt) {
	var declared *Type
	if s.TypeName != "" {
		declared = a.resolve(s.TypeName)
	}
	var initType *Type
	if s.Init != nil {
		initType = a.typeOf(s.Init)
	}
	switch {
	case s.TypeName != "" && s.Init != nil:
		if !declared.Equal(initType) {
			a.fail(semanticError("cannot initialize %s (declared %s) with value of type %s",
				s.Name, declared, initType))
		}
		s.Resolved = declared
	case s.TypeName != "":
		s.Resolved = declared
	default:
		s.Resolved = initType
	}
	if !a.scope.declare(s.Name, s.Resolved) {
		a.fail(semanticError("%s redeclared", s.Name))
	}
}

// resolve maps a type-name string to a Type: primitives map directly, a
// "[]" suffix recurses to an Array of the inner type at any nesting depth,
// otherwise a struct lookup; failure yields Void.
func (a *Analyzer) resolve(name string) *Type {
	typ := a.universe.resolveTypeName(name)
	if typ == nil {
		a.fail(semanticError("unknown type %q", name))
		return VoidType
	}
	return typ
}

// typeOf decorates expr's type slot and returns the decorated type.
// Re-running on an already-decorated node is idempotent: every branch
// recomputes the same type from the same children, so a second pass
// leaves SetType unchanged.
func (a *Analyzer) typeOf(expr Expr) *Type {
	var typ *Type
	switch e := expr.(type) {
	case *LiteralExpr:
		typ = a.typeOfLiteral(e)
	case *VariableExpr:
		typ = a.typeOfVariable(e)
	case *BinaryExpr:
		typ = a.typeOfBinary(e)
	case *CallExpr:
		typ = a.typeOfCall(e)
	case *MemberExpr:
		typ = a.typeOfMember(e)
	case *IndexExpr:
		typ = a.typeOfIndex(e)
	case *ArrayLiteralExpr:
		typ = a.typeOfArrayLiteral(e)
	default:
		a.fail(semanticError("unhandled expression type %T", expr))
		typ = VoidType
	}
	expr.SetType(typ)
	return typ
}

func (a *Analyzer) typeOfLiteral(e *LiteralExpr) *Type {
	switch e.Kind {
	case IntLiteral:
		return IntType
	case FloatLiteral:
		return FloatType
	case BoolLiteral:
		return BoolType
	case StringLiteral:
		return StringType
	default:
		return VoidType
	}
}

func (a *Analyzer) typeOfVariable(e *VariableExpr) *Type {
	typ := a.scope.resolve(e.Name)
	if typ == nil {
		a.fail(semanticError("undefined name %q", e.Name))
		return VoidType
	}
	return typ
}

func (a *Analyzer) typeOfBinary(e *BinaryExpr) *Type {
	if e.Op == "=" {
		return a.typeOfAssign(e)
	}
	leftType := a.typeOf(e.Left)
	rightType := a.typeOf(e.Right)
	switch e.Op {
	case "+", "-", "*", "/":
		if !leftType.IsNumeric() || !rightType.IsNumeric() {
			a.fail(semanticError("operator %s requires numeric operands, got %s and %s",
				e.Op, leftType, rightType))
			return leftType
		}
		if !leftType.Equal(rightType) {
			a.fail(semanticError("operand type mismatch for %s: %s vs %s", e.Op, leftType, rightType))
			return leftType
		}
		return leftType
	case "<", ">", "==", "!=":
		if !leftType.Equal(rightType) {
			a.fail(semanticError("operand type mismatch for %s: %s vs %s", e.Op, leftType, rightType))
		}
		return BoolType
	default:
		a.fail(semanticError("unrecognized operator %q", e.Op))
		return leftType
	}
}

// typeOfAssign checks that the left side is a legal l-value form and that
// both sides agree on type exactly — no implicit numeric conversion.
func (a *Analyzer) typeOfAssign(e *BinaryExpr) *Type {
	switch e.Left.(type) {
	case *VariableExpr, *MemberExpr, *IndexExpr:
	default:
		a.fail(semanticError("left side of assignment must be a variable, field, or index expression"))
	}
	leftType := a.typeOf(e.Left)
	rightType := a.typeOf(e.Right)
	if !leftType.Equal(rightType) {
		a.fail(semanticError("cannot assign value of type %s to target of type %s", rightType, leftType))
	}
	return rightType
}

func (a *Analyzer) typeOfCall(e *CallExpr) *Type {
	callee := a.scope.resolve(e.Callee)
	argTypes := make([]*Type, len(e.Args))
	for i, arg := range e.Args {
		argTypes[i] = a.typeOf(arg)
	}
	if callee == nil {
		a.fail(semanticError("undefined function %q", e.Callee))
		return VoidType
	}
	if callee.Kind != FunctionKind {
		a.fail(semanticError("%q is not a function", e.Callee))
		return VoidType
	}
	if len(argTypes) != len(callee.Params) {
		a.fail(semanticError("%s expects %d argument(s), got %d", e.Callee, len(callee.Params), len(argTypes)))
		return callee.Return
	}
	for i, want := range callee.Params {
		if !want.Equal(argTypes[i]) {
			a.fail(semanticError("%s argument %d: expected %s, got %s", e.Callee, i+1, want, argTypes[i]))
		}
	}
	return callee.Return
}

func (a *Analyzer) typeOfMember(e *MemberExpr) *Type {
	baseType := a.typeOf(e.Base)
	if baseType.Kind != StructKind {
		a.fail(semanticError("member access on non-struct type %s", baseType))
		return VoidType
	}
	fieldType := baseType.FieldType(e.Member)
	if fieldType == nil {
		a.fail(semanticError("struct %s has no member %q", baseType, e.Member))
		return VoidType
	}
	return fieldType
}

func (a *Analyzer) typeOfIndex(e *IndexExpr) *Type {
	baseType := a.typeOf(e.Base)
	indexType := a.typeOf(e.Index)
	if baseType.Kind != ArrayKind {
		a.fail(semanticError("indexing non-array type %s", baseType))
		return VoidType
	}
	if !indexType.Equal(IntType) {
		a.fail(semanticError("array index must be int, got %s", indexType))
	}
	return baseType.Elem
}

// typeOfArrayLiteral requires a non-empty element list: an empty literal
// cannot infer an element type, so it is rejected outright rather than
// defaulted to some placeholder element type. All elements' types must agree.
func (a *Analyzer) typeOfArrayLiteral(e *ArrayLiteralExpr) *Type {
	if len(e.Elements) == 0 {
		a.fail(semanticError("cannot infer element type of empty array literal"))
		return NewArrayType(VoidType)
	}
	elemType := a.typeOf(e.Elements[0])
	for _, elem := range e.Elements[1:] {
		t := a.typeOf(elem)
		if !t.Equal(elemType) {
			a.fail(semanticError("array literal element type mismatch: %s vs %s", elemType, t))
		}
	}
	return NewArrayType(elemType)
}
