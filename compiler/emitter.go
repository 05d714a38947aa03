package compiler

import (
	"errors"
	"fmt"
	"strconv"
)

// Emitter walks the type-decorated AST and produces an SSA-IR Module,
// tracking three pieces of state: the current insertion block, the current
// function's name→stack-slot map (held on the Function itself), and the
// struct layout table (held on the Module).
type Emitter struct {
	universe     *Universe
	module       *Module
	fn           *Function
	block        *BasicBlock
	blockCounter int
	errs         []error
}

func newEmitter(universe *Universe) *Emitter {
	return &Emitter{universe: universe, module: newModule()}
}

func emissionError(format string, args ...interface{}) error {
	return fmt.Errorf("emission error: "+format, args...)
}

func (e *Emitter) fault(err error) {
	e.errs = append(e.errs, err)
}

// Emit lowers a fully analyzed top-level statement list to an IR module.
// universe must be the same Universe the analyzer populated, so struct
// layouts reflect resolved field types.
func Emit(stmts []Stmt, universe *Universe) (*Module, error) {
	e := newEmitter(universe)

	for _, s := range stmts {
		if sd, ok := s.(*StructDeclStmt); ok {
			structType := universe.lookupStruct(sd.Name)
			e.declareStructLayout(structType)
		}
	}

	hasUserMain := false
	for _, s := range stmts {
		if fd, ok := s.(*FuncDeclStmt); ok && fd.Name == "main" {
			hasUserMain = true
		}
	}

	var topLevel []Stmt
	for _, s := range stmts {
		switch st := s.(type) {
		case *FuncDeclStmt:
			e.emitFunction(st)
		case *StructDeclStmt:
			// layout already built above
		default:
			topLevel = append(topLevel, st)
		}
	}

	// Entry point selection: __init alongside a user-defined main,
	// otherwise a synthesized main.
	entryName := "main"
	if hasUserMain {
		entryName = "__init"
	}
	e.emitEntryFunction(entryName, topLevel)

	if len(e.errs) == 0 {
		return e.module, nil
	}
	return e.module, errors.Join(e.errs...)
}

func (e *Emitter) declareStructLayout(t *Type) {
	if t == nil {
		return
	}
	fieldTypes := make([]*IRType, len(t.Fields))
	fieldIndex := make(map[string]int, len(t.Fields))
	for i, f := range t.Fields {
		fieldTypes[i] = e.irTypeOf(f.Type)
		fieldIndex[f.Name] = i
	}
	e.module.Structs[t.Name] = &StructLayout{Name: t.Name, FieldTypes: fieldTypes, FieldIndex: fieldIndex}
}

// irTypeOf maps a semantic Type to its lowered IR representation.
func (e *Emitter) irTypeOf(t *Type) *IRType {
	if t == nil {
		return irInt64
	}
	switch t.Kind {
	case VoidKind:
		return irVoid
	case IntKind:
		return irInt64
	case FloatKind:
		return irFloat
	case BoolKind:
		return irBit1
	case StringKind:
		return irPointerTo(irInt8)
	case StructKind:
		return irNamedStruct(t.Name)
	case ArrayKind:
		return irPointerTo(e.irTypeOf(t.Elem))
	case FunctionKind:
		return irVoid
	default:
		return irInt64
	}
}

// emitFunction resolves a function's signature, allocates its entry block,
// spills parameters to stack slots, and then lowers its body.
func (e *Emitter) emitFunction(s *FuncDeclStmt) {
	paramTypes := make([]*Type, len(s.Params))
	paramIRTypes := make([]*IRType, len(s.Params))
	paramNames := make([]string, len(s.Params))
	for i, p := range s.Params {
		paramTypes[i] = e.resolveTypeName(p.TypeName)
		paramIRTypes[i] = e.irTypeOf(paramTypes[i])
		paramNames[i] = p.Name
	}
	returnType := VoidType
	if s.ReturnName != "" {
		returnType = e.resolveTypeName(s.ReturnName)
	}

	fn := &Function{
		Name:       s.Name,
		ParamTypes: paramIRTypes,
		ParamNames: paramNames,
		ReturnType: e.irTypeOf(returnType),
		Slots:      make(map[string]*Instruction),
		Extern:     s.Body == nil,
	}
	e.module.Functions = append(e.module.Functions, fn)

	if s.Body == nil {
		return // extern: declaration only, step 2
	}

	entry := &BasicBlock{Name: "entry"}
	fn.Blocks = append(fn.Blocks, entry)

	outerFn, outerBlock := e.fn, e.block
	e.fn, e.block = fn, entry

	for i, p := range s.Params {
		slot := e.emitAlloca(p.Name, paramIRTypes[i])
		e.emitStore(slot, &ParamValue{Name: p.Name, Typ: paramIRTypes[i]})
	}

	e.emitBlock(s.Body)

	if !e.block.terminated() {
		e.emitFallthroughReturn(returnType)
	}

	e.fn, e.block = outerFn, outerBlock
}

// emitEntryFunction emits the synthesized main/__init function that hosts
// the program's top-level statements.
func (e *Emitter) emitEntryFunction(name string, stmts []Stmt) {
	fn := &Function{Name: name, ReturnType: irInt64, Slots: make(map[string]*Instruction)}
	e.module.Functions = append(e.module.Functions, fn)

	entry := &BasicBlock{Name: "entry"}
	fn.Blocks = append(fn.Blocks, entry)
	e.fn, e.block = fn, entry

	for _, s := range stmts {
		if e.block.terminated() {
			continue
		}
		e.emitStatement(s)
	}
	if !e.block.terminated() {
		e.setTerm(&RetValue{Val: &ConstInt{Val: 0}})
	}
}

// resolveTypeName resolves a parsed type-name string through the same
// Universe.resolveTypeName the analyzer uses, to compute a function's
// signature; an unresolvable name is recorded as an emission fault and
// yields Void.
func (e *Emitter) resolveTypeName(name string) *Type {
	typ := e.universe.resolveTypeName(name)
	if typ == nil {
		e.fault(emissionError("unresolved type name %q at emission time", name))
		return VoidType
	}
	return typ
}

func (e *Emitter) emitFallthroughReturn(returnType *Type) {
	switch {
	case returnType == nil || returnType.Kind == VoidKind:
		e.setTerm(&RetVoid{})
	case returnType.Kind == IntKind:
		e.setTerm(&RetValue{Val: &ConstInt{Val: 0}})
	default:
		if zero, ok := e.zeroValue(e.irTypeOf(returnType)); ok {
			e.setTerm(&RetValue{Val: zero})
		} else {
			e.setTerm(&RetValue{Val: &ConstInt{Val: 0}})
		}
	}
}

func (e *Emitter) zeroValue(t *IRType) (Value, bool) {
	switch t.Kind {
	case IRInt64, IRInt8:
		return &ConstInt{Val: 0}, true
	case IRFloat64:
		return &ConstFloat{Val: 0}, true
	case IRBit1:
		return &ConstBool{Val: false}, true
	case IRPointer:
		return &ConstInt{Val: 0}, true
	default:
		return nil, false
	}
}

// emitBlock emits statements in order until the current block acquires a
// terminator; the remaining statements of the list (unreachable code after
// a return) are skipped without being emitted.
func (e *Emitter) emitBlock(b *BlockStmt) {
	for _, stmt := range b.Stmts {
		if e.block.terminated() {
			continue
		}
		e.emitStatement(stmt)
	}
}

func (e *Emitter) emitStatement(stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		e.emitExpr(s.X)
	case *VarDeclStmt:
		e.emitVarDecl(s)
	case *ReturnStmt:
		e.emitReturn(s)
	case *BlockStmt:
		e.emitBlock(s)
	case *IfStmt:
		e.emitIf(s)
	case *WhileStmt:
		e.emitWhile(s)
	case *ForStmt:
		e.emitFor(s)
	case *FuncDeclStmt, *StructDeclStmt:
		// Declarations are emitted at module scope only; nothing to do
		// if one is visited here.
	default:
		e.fault(emissionError("unhandled statement type %T", stmt))
	}
}

func (e *Emitter) emitVarDecl(s *VarDeclStmt) {
	irType := e.irTypeOf(s.Resolved)
	slot := e.emitAlloca(s.Name, irType)
	if s.Init != nil {
		val := e.emitExpr(s.Init)
		e.emitStore(slot, val)
		return
	}
	if zero, ok := e.zeroValue(irType); ok {
		e.emitStore(slot, zero)
	}
}

func (e *Emitter) emitReturn(s *ReturnStmt) {
	if s.Value != nil {
		val := e.emitExpr(s.Value)
		e.setTerm(&RetValue{Val: val})
		return
	}
	e.setTerm(&RetVoid{})
}

// emitIf lowers a conditional into then/else/merge blocks: the else block
// is allocated only when an else-branch is present, so an if with no else
// adds just two blocks (then and merge) after the block holding the
// conditional branch.
func (e *Emitter) emitIf(s *IfStmt) {
	condVal := e.emitExpr(s.Cond)
	condBit := e.normalizeBool(condVal, s.Cond.Type())

	thenBlock := e.allocBlock("then")
	mergeBlock := e.allocBlock("merge")
	var elseBlock *BasicBlock
	falseTarget := mergeBlock
	if s.Else != nil {
		elseBlock = e.allocBlock("else")
		falseTarget = elseBlock
	}

	e.setTerm(&CondBr{Cond: condBit, TrueTarget: thenBlock, FalseTarget: falseTarget})

	e.enterBlock(thenBlock)
	e.emitBlock(s.Then)
	if !e.block.terminated() {
		e.setTerm(&Br{Target: mergeBlock})
	}

	if elseBlock != nil {
		e.enterBlock(elseBlock)
		e.emitBlock(s.Else)
		if !e.block.terminated() {
			e.setTerm(&Br{Target: mergeBlock})
		}
	}

	e.enterBlock(mergeBlock)
}

// emitWhile lowers a pre-tested loop into cond/body/after blocks.
func (e *Emitter) emitWhile(s *WhileStmt) {
	condBlock := e.allocBlock("cond")
	bodyBlock := e.allocBlock("body")
	afterBlock := e.allocBlock("after")

	e.setTerm(&Br{Target: condBlock})

	e.enterBlock(condBlock)
	condVal := e.emitExpr(s.Cond)
	condBit := e.normalizeBool(condVal, s.Cond.Type())
	e.setTerm(&CondBr{Cond: condBit, TrueTarget: bodyBlock, FalseTarget: afterBlock})

	e.enterBlock(bodyBlock)
	e.emitBlock(s.Body)
	if !e.block.terminated() {
		e.setTerm(&Br{Target: condBlock})
	}

	e.enterBlock(afterBlock)
}

// emitFor lowers the three-clause for-loop by reusing
// while's cond/body/after shape, with the post clause emitted at the end
// of the body before the branch back to cond.
func (e *Emitter) emitFor(s *ForStmt) {
	if !e.block.terminated() {
		e.emitStatement(s.Init)
	}

	condBlock := e.allocBlock("cond")
	bodyBlock := e.allocBlock("body")
	afterBlock := e.allocBlock("after")

	e.setTerm(&Br{Target: condBlock})

	e.enterBlock(condBlock)
	condVal := e.emitExpr(s.Cond)
	condBit := e.normalizeBool(condVal, s.Cond.Type())
	e.setTerm(&CondBr{Cond: condBit, TrueTarget: bodyBlock, FalseTarget: afterBlock})

	e.enterBlock(bodyBlock)
	e.emitBlock(s.Body)
	if !e.block.terminated() {
		e.emitStatement(s.Post)
	}
	if !e.block.terminated() {
		e.setTerm(&Br{Target: condBlock})
	}

	e.enterBlock(afterBlock)
}

// normalizeBool converts a condition value to a 1-bit value: an Int
// condition is compared against zero, a Bool condition passes through.
func (e *Emitter) normalizeBool(val Value, semType *Type) Value {
	if semType != nil && semType.Kind == IntKind {
		return e.emit(&Instruction{Op: OpICmpNeq, Typ: irBit1, Operands: []Value{val, &ConstInt{Val: 0}}})
	}
	return val
}

// emitExpr evaluates expr as an r-value.
func (e *Emitter) emitExpr(expr Expr) Value {
	switch ex := expr.(type) {
	case *LiteralExpr:
		return e.emitLiteral(ex)
	case *VariableExpr:
		slot, ok := e.fn.Slots[ex.Name]
		if !ok {
			e.fault(emissionError("no stack slot for %q at emission time", ex.Name))
			return &ConstInt{Val: 0}
		}
		return e.emitLoad(slot, e.irTypeOf(expr.Type()))
	case *BinaryExpr:
		if ex.Op == "=" {
			return e.emitAssign(ex)
		}
		return e.emitBinaryOp(ex)
	case *CallExpr:
		return e.emitCall(ex)
	case *MemberExpr:
		addr, fieldType := e.emitLValueAddress(ex)
		return e.emitLoad(addr, e.irTypeOf(fieldType))
	case *IndexExpr:
		addr, elemType := e.emitLValueAddress(ex)
		return e.emitLoad(addr, e.irTypeOf(elemType))
	case *ArrayLiteralExpr:
		return e.emitArrayLiteral(ex)
	default:
		e.fault(emissionError("unhandled expression type %T", expr))
		return &ConstInt{Val: 0}
	}
}

func (e *Emitter) emitLiteral(lit *LiteralExpr) Value {
	switch lit.Kind {
	case IntLiteral:
		v, err := strconv.ParseInt(lit.Raw, 10, 64)
		if err != nil {
			e.fault(emissionError("malformed integer literal %q", lit.Raw))
		}
		return &ConstInt{Val: v}
	case FloatLiteral:
		v, err := strconv.ParseFloat(lit.Raw, 64)
		if err != nil {
			e.fault(emissionError("malformed float literal %q", lit.Raw))
		}
		return &ConstFloat{Val: v}
	case BoolLiteral:
		return &ConstBool{Val: lit.Raw == "true"}
	case StringLiteral:
		return &ConstString{Val: lit.Raw}
	default:
		e.fault(emissionError("unhandled literal kind %d", lit.Kind))
		return &ConstInt{Val: 0}
	}
}

// emitLValueAddress computes the storage address of expr. It returns the
// address and the semantic type of the addressed storage.
func (e *Emitter) emitLValueAddress(expr Expr) (Value, *Type) {
	switch ex := expr.(type) {
	case *VariableExpr:
		slot, ok := e.fn.Slots[ex.Name]
		if !ok {
			e.fault(emissionError("no stack slot for %q at emission time", ex.Name))
			return &ConstInt{Val: 0}, expr.Type()
		}
		return slot, expr.Type()
	case *MemberExpr:
		// Member access evaluates its base as an l-value (recursively):
		// struct values are addressed, not copied.
		baseAddr, baseType := e.emitLValueAddress(ex.Base)
		if baseType == nil || baseType.Kind != StructKind {
			e.fault(emissionError("member access base is not a struct at emission time"))
			return baseAddr, VoidType
		}
		idx := baseType.FieldIndex(ex.Member)
		fieldType := baseType.FieldType(ex.Member)
		if idx < 0 {
			e.fault(emissionError("struct %s has no member %q at emission time", baseType, ex.Member))
			return baseAddr, VoidType
		}
		addr := e.emit(&Instruction{
			Op:      OpGEP,
			Typ:     irPointerTo(e.irTypeOf(fieldType)),
			Base:    baseAddr,
			Indices: []Value{&ConstInt{Val: 0}, &ConstInt{Val: int64(idx)}},
		})
		return addr, fieldType
	case *IndexExpr:
		// Index evaluates its base as an r-value: arrays are handled by
		// pointer, not by address-of-the-pointer-variable. This
		// asymmetry with MemberExpr is intentional.
		baseVal := e.emitExpr(ex.Base)
		baseType := ex.Base.Type()
		if baseType == nil || baseType.Kind != ArrayKind {
			e.fault(emissionError("index base is not an array at emission time"))
			return baseVal, VoidType
		}
		indexVal := e.emitExpr(ex.Index)
		elemType := baseType.Elem
		addr := e.emit(&Instruction{
			Op:      OpGEP,
			Typ:     irPointerTo(e.irTypeOf(elemType)),
			Base:    baseVal,
			Indices: []Value{indexVal},
		})
		return addr, elemType
	default:
		e.fault(emissionError("%T is not a valid l-value at emission time", expr))
		return &ConstInt{Val: 0}, VoidType
	}
}

func (e *Emitter) emitAssign(bin *BinaryExpr) Value {
	addr, _ := e.emitLValueAddress(bin.Left)
	val := e.emitExpr(bin.Right)
	e.emitStore(addr, val)
	return val
}

func (e *Emitter) emitBinaryOp(bin *BinaryExpr) Value {
	left := e.emitExpr(bin.Left)
	right := e.emitExpr(bin.Right)
	leftType := bin.Left.Type()
	isFloat := leftType != nil && leftType.Kind == FloatKind

	var op Opcode
	var resultType *IRType
	switch bin.Op {
	case "+":
		op, resultType = pickOp(isFloat, OpFAdd, OpAdd), e.irTypeOf(leftType)
	case "-":
		op, resultType = pickOp(isFloat, OpFSub, OpSub), e.irTypeOf(leftType)
	case "*":
		op, resultType = pickOp(isFloat, OpFMul, OpMul), e.irTypeOf(leftType)
	case "/":
		op, resultType = pickOp(isFloat, OpFDiv, OpDiv), e.irTypeOf(leftType)
	case "<":
		op, resultType = pickOp(isFloat, OpFCmpLt, OpICmpLt), irBit1
	case ">":
		op, resultType = pickOp(isFloat, OpFCmpGt, OpICmpGt), irBit1
	case "==":
		op, resultType = pickOp(isFloat, OpFCmpEq, OpICmpEq), irBit1
	case "!=":
		op, resultType = pickOp(isFloat, OpFCmpNeq, OpICmpNeq), irBit1
	default:
		e.fault(emissionError("unhandled binary operator %q at emission time", bin.Op))
		op, resultType = OpAdd, e.irTypeOf(leftType)
	}
	return e.emit(&Instruction{Op: op, Typ: resultType, Operands: []Value{left, right}})
}

func pickOp(useFirst bool, first, second Opcode) Opcode {
	if useFirst {
		return first
	}
	return second
}

func (e *Emitter) emitCall(call *CallExpr) Value {
	args := make([]Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = e.emitExpr(arg)
	}
	resultType := e.irTypeOf(call.Type())
	return e.emit(&Instruction{Op: OpCall, Typ: resultType, Operands: args, Callee: call.Callee})
}

// emitArrayLiteral lowers a heap-allocated array literal: lazily declare
// malloc, call it, then store each element at its offset against the
// element type.
func (e *Emitter) emitArrayLiteral(lit *ArrayLiteralExpr) Value {
	arrayType := lit.Type()
	elemType := arrayType.Elem
	elemIRType := e.irTypeOf(elemType)

	e.declareMallocIfNeeded()

	// The size operand is an element count, not a byte count: multiplying
	// by sizeof(ElemType) needs a target data layout, which is the
	// backend's job, not the emitter's.
	count := int64(len(lit.Elements))
	ptr := e.emit(&Instruction{
		Op:       OpCall,
		Typ:      irPointerTo(elemIRType),
		Operands: []Value{&ConstInt{Val: count}},
		Callee:   "malloc",
		ElemType: elemIRType,
	})

	for i, elemExpr := range lit.Elements {
		val := e.emitExpr(elemExpr)
		addr := e.emit(&Instruction{
			Op:      OpGEP,
			Typ:     irPointerTo(elemIRType),
			Base:    ptr,
			Indices: []Value{&ConstInt{Val: int64(i)}},
		})
		e.emitStore(addr, val)
	}
	return ptr
}

func (e *Emitter) declareMallocIfNeeded() {
	if e.module.mallocDeclared {
		return
	}
	e.module.mallocDeclared = true
	e.module.Functions = append(e.module.Functions, &Function{
		Name:       "malloc",
		ParamTypes: []*IRType{irInt64},
		ParamNames: []string{"size"},
		ReturnType: irPointerTo(irInt8),
		Extern:     true,
	})
}

func (e *Emitter) emitAlloca(name string, t *IRType) *Instruction {
	instr := &Instruction{Op: OpAlloca, Typ: irPointerTo(t), Name: name}
	entry := e.fn.entryBlock()
	entry.Instrs = append(entry.Instrs, instr)
	e.fn.Slots[name] = instr
	return instr
}

func (e *Emitter) emitLoad(addr Value, t *IRType) Value {
	return e.emit(&Instruction{Op: OpLoad, Typ: t, Operands: []Value{addr}})
}

func (e *Emitter) emitStore(addr Value, val Value) {
	e.emit(&Instruction{Op: OpStore, Typ: irVoid, Operands: []Value{addr, val}})
}

func (e *Emitter) emit(instr *Instruction) Value {
	e.block.Instrs = append(e.block.Instrs, instr)
	return instr
}

func (e *Emitter) allocBlock(prefix string) *BasicBlock {
	e.blockCounter++
	return &BasicBlock{Name: fmt.Sprintf("%s%d", prefix, e.blockCounter)}
}

func (e *Emitter) enterBlock(b *BasicBlock) {
	e.fn.Blocks = append(e.fn.Blocks, b)
	e.block = b
}

func (e *Emitter) setTerm(t Terminator) {
	if e.block.Term != nil {
		return
	}
	e.block.Term = t
}
