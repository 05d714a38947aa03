package compiler

// This file defines the SSA-IR data model: a module of
// functions, each an ordered list of basic blocks ending in exactly one
// terminator, referencing values by Go pointer identity rather than a
// separate numeric handle table — the same "instruction IS its own SSA
// value" shape that every real LLVM-style IR uses. Nothing here binds to
// an external backend; handing the module off to one is explicitly out of
// scope.

// IRKind is the closed tag of a lowered IR type, distinct from the
// semantic Type: IR types describe storage shape, not source-level
// identity (an Array lowers to a pointer to its element type, a Struct to
// a reference to its named layout).
type IRKind int

const (
	IRVoid IRKind = iota
	IRInt64
	IRInt8
	IRFloat64
	IRBit1
	IRPointer
	IRStruct
)

// IRType is the lowered type of a value. Pointer wraps Elem; Struct names
// a previously materialized layout in the owning Module.
type IRType struct {
	Kind       IRKind
	Elem       *IRType
	StructName string
}

var (
	irVoid  = &IRType{Kind: IRVoid}
	irInt64 = &IRType{Kind: IRInt64}
	irInt8  = &IRType{Kind: IRInt8}
	irFloat = &IRType{Kind: IRFloat64}
	irBit1  = &IRType{Kind: IRBit1}
)

func irPointerTo(elem *IRType) *IRType {
	return &IRType{Kind: IRPointer, Elem: elem}
}

func irNamedStruct(name string) *IRType {
	return &IRType{Kind: IRStruct, StructName: name}
}

// Value is anything an instruction can reference as an operand: a
// constant, a function parameter, or the result of a prior instruction.
type Value interface {
	valueNode()
	ValueType() *IRType
}

type ConstInt struct {
	Val int64
}

func (*ConstInt) valueNode() {}
func (*ConstInt) ValueType() *IRType { return irInt64 }

type ConstFloat struct {
	Val float64
}

func (*ConstFloat) valueNode() {}
func (*ConstFloat) ValueType() *IRType { return irFloat }

type ConstBool struct {
	Val bool
}

func (*ConstBool) valueNode() {}
func (*ConstBool) ValueType() *IRType { return irBit1 }

// ConstString is a reference to a static, externally-owned UTF-8 byte
// sequence; the backend is responsible for interning it and handing back
// a pointer.
type ConstString struct {
	Val string
}

func (*ConstString) valueNode() {}
func (*ConstString) ValueType() *IRType { return irPointerTo(irInt8) }

// ParamValue is an incoming function argument, referenced before it is
// ever stored into its stack slot.
type ParamValue struct {
	Name string
	Typ  *IRType
}

func (*ParamValue) valueNode() {}
func (p *ParamValue) ValueType() *IRType { return p.Typ }

// Opcode is the closed set of non-terminator instruction operations.
type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore
	OpGEP // address computation: base + [indices...]
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpICmpEq
	OpICmpNeq
	OpICmpLt
	OpICmpGt
	OpFCmpEq
	OpFCmpNeq
	OpFCmpLt
	OpFCmpGt
	OpCall
)

// Instruction is both an IR operation and, when it produces a result, the
// SSA value other instructions reference by pointer. Store has no result
// (its Typ is IRVoid and it must never appear as an operand).
type Instruction struct {
	Op       Opcode
	Typ      *IRType
	Operands []Value // Load: [address]; Store: [address, value]; binops: [lhs, rhs]; Call: args
	Base     Value   // GEP only: the pointer being addressed into
	Indices  []Value // GEP only: one value per index level (struct field access uses [0, field_index], array indexing uses a single dynamic index)
	Callee   string  // Call only
	ElemType *IRType // Call to malloc only: element type, for the backend's size computation
	Name     string  // Alloca only: the source-level local name it backs
}

func (*Instruction) valueNode() {}
func (i *Instruction) ValueType() *IRType { return i.Typ }

// Terminator is the final operation of a basic block.
type Terminator interface {
	terminatorNode()
}

type Br struct {
	Target *BasicBlock
}

func (*Br) terminatorNode() {}

type CondBr struct {
	Cond        Value
	TrueTarget  *BasicBlock
	FalseTarget *BasicBlock
}

func (*CondBr) terminatorNode() {}

type RetValue struct {
	Val Value
}

func (*RetValue) terminatorNode() {}

type RetVoid struct{}

func (*RetVoid) terminatorNode() {}

// BasicBlock is an ordered instruction list capped by exactly one
// terminator: no instruction may follow it.
type BasicBlock struct {
	Name   string
	Instrs []*Instruction
	Term   Terminator
}

func (b *BasicBlock) terminated() bool {
	return b.Term != nil
}

// Function owns its blocks in emission order and a name→stack-slot map
// for every local (parameters included), all of which live in the entry
// block regardless of textual declaration position.
type Function struct {
	Name       string
	ParamTypes []*IRType
	ParamNames []string
	ReturnType *IRType
	Blocks     []*BasicBlock
	Slots      map[string]*Instruction // name -> its Alloca instruction
	Extern     bool
}

func (f *Function) entryBlock() *BasicBlock {
	return f.Blocks[0]
}

// StructLayout is the lowered field order and name→index map for one
// struct type, built once at struct-declaration emission time.
type StructLayout struct {
	Name       string
	FieldTypes []*IRType
	FieldIndex map[string]int
}

func (s *StructLayout) indexOf(field string) int {
	if idx, ok := s.FieldIndex[field]; ok {
		return idx
	}
	return -1
}

// Module is the emitter's final product: a list of (possibly extern)
// functions and the struct layouts they reference. Emit returns it to the
// caller as a pointer after emission completes and never mutates it again.
type Module struct {
	Functions      []*Function
	Structs        map[string]*StructLayout
	mallocDeclared bool
}

func newModule() *Module {
	return &Module{Structs: make(map[string]*StructLayout)}
}

func (m *Module) lookupFunction(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
