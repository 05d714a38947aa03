package compiler

// Scope is one frame of a linked lexical scope chain: locals declared in
// this frame, plus a parent pointer to the enclosing frame. Function bodies
// push a fresh child scope over the global frame; blocks (if/while/for
// bodies) push a fresh child scope over their enclosing function scope.
// This chain replaces a quadratic snapshot-and-restore approach (see
// DESIGN.md).
type Scope struct {
	parent *Scope
	vars   map[string]*Type
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]*Type)}
}

// declare binds name to typ in this frame. It returns false if name is
// already bound in this same frame (shadowing an outer frame is legal,
// redeclaring within one frame is not).
func (s *Scope) declare(name string, typ *Type) bool {
	if _, exists := s.vars[name]; exists {
		return false
	}
	s.vars[name] = typ
	return true
}

// resolve walks the scope chain outward and returns the type bound to name,
// or nil if name is unbound anywhere in the chain.
func (s *Scope) resolve(name string) *Type {
	for scope := s; scope != nil; scope = scope.parent {
		if typ, ok := scope.vars[name]; ok {
			return typ
		}
	}
	return nil
}

// Universe is the module-wide struct type table: a global map from
// struct name to struct type. Functions live in the ordinary identifier
// scope chain alongside variables — the two share one namespace, so a
// function name can be referenced as a call callee or, in principle, as
// a plain value.
type Universe struct {
	structs map[string]*Type
}

func newUniverse() *Universe {
	return &Universe{structs: make(map[string]*Type)}
}

func (u *Universe) declareStruct(name string, typ *Type) bool {
	if _, exists := u.structs[name]; exists {
		return false
	}
	u.structs[name] = typ
	return true
}

func (u *Universe) lookupStruct(name string) *Type {
	return u.structs[name]
}

// resolveTypeName parses a type-name string produced by the parser
// ("int", "Point", "int[]", "int[][]", ...) against the struct table and
// the fixed set of primitive names. It returns nil if the name does not
// denote a known type.
func (u *Universe) resolveTypeName(name string) *Type {
	depth := 0
	base := name
	for len(base) >= 2 && base[len(base)-2:] == "[]" {
		depth++
		base = base[:len(base)-2]
	}
	var elem *Type
	switch base {
	case "void":
		elem = VoidType
	case "int":
		elem = IntType
	case "float":
		elem = FloatType
	case "bool":
		elem = BoolType
	case "string":
		elem = StringType
	default:
		elem = u.lookupStruct(base)
		if elem == nil {
			return nil
		}
	}
	result := elem
	for i := 0; i < depth; i++ {
		result = NewArrayType(result)
	}
	return result
}
