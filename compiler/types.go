package compiler

// Kind is the closed tag of the type model.
type Kind int

const (
	VoidKind Kind = iota
	IntKind
	FloatKind
	BoolKind
	StringKind
	StructKind
	ArrayKind
	FunctionKind
)

// StructField is one ordered (name, type) pair in a struct's layout.
type StructField struct {
	Name string
	Type *Type
}

// Type is the closed sum of every type the language expresses. Struct
// identity is nominal (by Name); array and function identity is structural.
type Type struct {
	Kind Kind

	// Struct
	Name   string
	Fields []StructField

	// Array
	Elem *Type

	// Function
	Params []*Type
	Return *Type
}

var (
	VoidType   = &Type{Kind: VoidKind}
	IntType    = &Type{Kind: IntKind}
	FloatType  = &Type{Kind: FloatKind}
	BoolType   = &Type{Kind: BoolKind}
	StringType = &Type{Kind: StringKind}
)

func NewArrayType(elem *Type) *Type {
	return &Type{Kind: ArrayKind, Elem: elem}
}

func NewFunctionType(params []*Type, ret *Type) *Type {
	return &Type{Kind: FunctionKind, Params: params, Return: ret}
}

func NewStructType(name string, fields []StructField) *Type {
	return &Type{Kind: StructKind, Name: name, Fields: fields}
}

// Equal reports structural equality for Array and Function, and nominal
// equality (by Name) for Struct. The type model trusts that struct name
// uniqueness is enforced by the symbol table.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case StructKind:
		return t.Name == other.Name
	case ArrayKind:
		return t.Elem.Equal(other.Elem)
	case FunctionKind:
		if len(t.Params) != len(other.Params) || !t.Return.Equal(other.Return) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == IntKind || t.Kind == FloatKind)
}

func (t *Type) String() string {
	if t == nil {
		return "<unresolved>"
	}
	switch t.Kind {
	case VoidKind:
		return "void"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case BoolKind:
		return "bool"
	case StringKind:
		return "string"
	case StructKind:
		return t.Name
	case ArrayKind:
		return t.Elem.String() + "[]"
	case FunctionKind:
		return "function"
	default:
		return "?"
	}
}

// FieldIndex returns the ordered index of a struct field, or -1 if absent.
func (t *Type) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldType returns the type of a struct field, or nil if absent.
func (t *Type) FieldType(name string) *Type {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}
