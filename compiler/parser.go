package compiler

import "fmt"

// Parser is a recursive-descent / Pratt parser. It consumes a Lexer lazily,
// one token of lookahead at a time.
type Parser struct {
	lexer   *Lexer
	current Token
}

func NewParser(src string) *Parser {
	p := &Parser{lexer: NewLexer(src)}
	p.current = p.lexer.NextToken()
	return p
}

func (p *Parser) advance() Token {
	tok := p.current
	p.current = p.lexer.NextToken()
	return tok
}

func (p *Parser) at(kind TokenKind) bool {
	return p.current.Kind == kind
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if !p.at(kind) {
		return Token{}, p.unexpected(kind)
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(expected TokenKind) error {
	return parseError("expected %s but got %s (%q) at line %d, column %d",
		expected, p.current.Kind, p.current.Lexeme, p.current.Line, p.current.Column)
}

func parseError(format string, args ...interface{}) error {
	return fmt.Errorf("syntax error: "+format, args...)
}

// Parse consumes the whole source, returning a flat top-level statement
// list: module := (function | extern | struct | statement)*
func (p *Parser) Parse() ([]Stmt, error) {
	var stmts []Stmt
	for !p.at(EOF) {
		stmt, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseTopLevel() (Stmt, error) {
	switch p.current.Kind {
	case DEF:
		return p.parseFunction()
	case EXTERN:
		return p.parseExtern()
	case STRUCT:
		return p.parseStruct()
	default:
		return p.parseStatement()
	}
}

// function := "def" ident "(" params? ")" ("->" type)? block "end"
func (p *Parser) parseFunction() (Stmt, error) {
	if _, err := p.expect(DEF); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	returnName, err := p.parseOptionalReturnType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &FuncDeclStmt{Name: name.Lexeme, Params: params, ReturnName: returnName, Body: body}, nil
}

// extern := "extern" "def" ident "(" params? ")" ("->" type)?
func (p *Parser) parseExtern() (Stmt, error) {
	if _, err := p.expect(EXTERN); err != nil {
		return nil, err
	}
	if _, err := p.expect(DEF); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	returnName, err := p.parseOptionalReturnType()
	if err != nil {
		return nil, err
	}
	return &FuncDeclStmt{Name: name.Lexeme, Params: params, ReturnName: returnName, Body: nil}, nil
}

func (p *Parser) parseParamList() ([]Param, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var params []Param
	if !p.at(RPAREN) {
		for {
			name, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			typeName, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			params = append(params, Param{Name: name.Lexeme, TypeName: typeName})
			if p.at(COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseOptionalReturnType() (string, error) {
	if !p.at(ARROW) {
		return "", nil
	}
	p.advance()
	return p.parseTypeName()
}

// type := ident ("[" "]")*
func (p *Parser) parseTypeName() (string, error) {
	name, err := p.expect(IDENT)
	if err != nil {
		return "", err
	}
	typeName := name.Lexeme
	for p.at(LBRACKET) {
		p.advance()
		if _, err := p.expect(RBRACKET); err != nil {
			return "", err
		}
		typeName += "[]"
	}
	return typeName, nil
}

// struct := "struct" ident (ident ":" type)* "end"
func (p *Parser) parseStruct() (Stmt, error) {
	if _, err := p.expect(STRUCT); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	var fields []StructFieldDecl
	for p.at(IDENT) {
		fieldName := p.advance()
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		fields = append(fields, StructFieldDecl{Name: fieldName.Lexeme, TypeName: typeName})
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &StructDeclStmt{Name: name.Lexeme, Fields: fields}, nil
}

// block := statement* (terminated by end/else/EOF)
func (p *Parser) parseBlock() (*BlockStmt, error) {
	var stmts []Stmt
	for !p.at(END) && !p.at(ELSE) && !p.at(EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &BlockStmt{Stmts: stmts}, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.current.Kind {
	case RETURN:
		return p.parseReturn()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case VAR:
		return p.parseVarDecl()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: expr}, nil
	}
}

// "return" expr?
func (p *Parser) parseReturn() (Stmt, error) {
	p.advance()
	if p.startsExpr() {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value}, nil
	}
	return &ReturnStmt{}, nil
}

// startsExpr reports whether the current token can begin an expression;
// used to distinguish a bare "return" from "return expr".
func (p *Parser) startsExpr() bool {
	switch p.current.Kind {
	case IDENT, INT, FLOAT, TRUE, FALSE, STRING, LBRACKET, LPAREN:
		return true
	default:
		return false
	}
}

// "if" expr block ("else" block)? "end"
func (p *Parser) parseIf() (Stmt, error) {
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *BlockStmt
	if p.at(ELSE) {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &IfStmt{Cond: cond, Then: then, Else: elseBlock}, nil
}

// "while" expr block "end"
func (p *Parser) parseWhile() (Stmt, error) {
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

// "for" (var-decl | expr) "," expr "," (var-decl | expr) block "end"
func (p *Parser) parseFor() (Stmt, error) {
	p.advance()
	init, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA); err != nil {
		return nil, err
	}
	post, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return &ForStmt{Init: init, Cond: cond, Post: post, Body: body}, nil
}

// parseSimpleStatement parses a var-decl or expr-statement, the two
// statement forms legal as a for-loop's init/post clause.
func (p *Parser) parseSimpleStatement() (Stmt, error) {
	if p.at(VAR) {
		return p.parseVarDecl()
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: expr}, nil
}

// "var" ident (":" type)? ("=" expr)?
// At least one of type annotation or initializer must be supplied.
func (p *Parser) parseVarDecl() (Stmt, error) {
	p.advance()
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	var typeName string
	if p.at(COLON) {
		p.advance()
		typeName, err = p.parseTypeName()
		if err != nil {
			return nil, err
		}
	}
	var init Expr
	if p.at(ASSIGN) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if typeName == "" && init == nil {
		return nil, parseError("var %s needs a type annotation or an initializer at line %d",
			name.Lexeme, name.Line)
	}
	return &VarDeclStmt{Name: name.Lexeme, TypeName: typeName, Init: init}, nil
}

// Operator precedence (highest to lowest): * / (5); + - (4); < > (3);
// == != (2); = (1). All left-associative.
var binaryPrecedence = map[TokenKind]int{
	STAR: 5, SLASH: 5,
	PLUS: 4, MINUS: 4,
	LT: 3, GT: 3,
	EQ: 2, NEQ: 2,
	ASSIGN: 1,
}

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseBinary(1)
}

// parseBinary is the precedence-climbing entry point. Passing the
// operator's precedence plus one to the recursive call enforces
// left-associativity at equal precedence.
func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnaryWithPostfix()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrecedence[p.current.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Lexeme, Left: left, Right: right}
	}
}

// parseUnaryWithPostfix consumes a primary and greedily chains any postfix
// member-access or index operators onto it before precedence climbing for
// the surrounding expression begins.
func (p *Parser) parseUnaryWithPostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current.Kind {
		case DOT:
			p.advance()
			member, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{Base: expr, Member: member.Lexeme}
		case LBRACKET:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			expr = &IndexExpr{Base: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

// primary := ident ("(" args? ")")?
//          | integer | float | "true" | "false" | string
//          | "[" (expr ("," expr)*)? "]"
//          | "(" expr ")"
func (p *Parser) parsePrimary() (Expr, error) {
	switch p.current.Kind {
	case IDENT:
		name := p.advance()
		if p.at(LPAREN) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Callee: name.Lexeme, Args: args}, nil
		}
		return &VariableExpr{Name: name.Lexeme}, nil
	case INT:
		tok := p.advance()
		return &LiteralExpr{Kind: IntLiteral, Raw: tok.Lexeme}, nil
	case FLOAT:
		tok := p.advance()
		return &LiteralExpr{Kind: FloatLiteral, Raw: tok.Lexeme}, nil
	case TRUE:
		p.advance()
		return &LiteralExpr{Kind: BoolLiteral, Raw: "true"}, nil
	case FALSE:
		p.advance()
		return &LiteralExpr{Kind: BoolLiteral, Raw: "false"}, nil
	case STRING:
		tok := p.advance()
		return &LiteralExpr{Kind: StringLiteral, Raw: tok.Lexeme}, nil
	case LBRACKET:
		return p.parseArrayLiteral()
	case LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, parseError("unexpected token %s (%q) at line %d, column %d",
			p.current.Kind, p.current.Lexeme, p.current.Line, p.current.Column)
	}
}

func (p *Parser) parseArgs() ([]Expr, error) {
	p.advance() // "("
	var args []Expr
	if !p.at(RPAREN) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.at(COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArrayLiteral() (Expr, error) {
	p.advance() // "["
	var elements []Expr
	if !p.at(RBRACKET) {
		for {
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)
			if p.at(COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	return &ArrayLiteralExpr{Elements: elements}, nil
}
