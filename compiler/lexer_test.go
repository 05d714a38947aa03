package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexer_Keywords(t *testing.T) {
	testData := []struct {
		src      string
		expected TokenKind
	}{
		{"def", DEF}, {"end", END}, {"if", IF}, {"else", ELSE},
		{"return", RETURN}, {"var", VAR}, {"struct", STRUCT},
		{"extern", EXTERN}, {"while", WHILE}, {"for", FOR},
		{"true", TRUE}, {"false", FALSE},
		{"fibonacci", IDENT},
	}
	for _, td := range testData {
		lexer := NewLexer(td.src)
		tok := lexer.NextToken()
		assert.Equal(t, td.expected, tok.Kind, td.src)
		assert.Equal(t, td.src, tok.Lexeme)
	}
}

func TestLexer_Numbers(t *testing.T) {
	testData := []struct {
		src      string
		expected TokenKind
	}{
		{"42", INT},
		{"3.14", FLOAT},
		{"3.", INT}, // no digit after '.', so '.' is not consumed
	}
	for _, td := range testData {
		lexer := NewLexer(td.src)
		tok := lexer.NextToken()
		assert.Equal(t, td.expected, tok.Kind, td.src)
	}
}

func TestLexer_EmptyStringLiteral(t *testing.T) {
	lexer := NewLexer(`""`)
	tok := lexer.NextToken()
	assert.Equal(t, STRING, tok.Kind)
	assert.Equal(t, "", tok.Lexeme)
}

func TestLexer_UnterminatedStringToleratedAtEOF(t *testing.T) {
	lexer := NewLexer(`"hello`)
	tok := lexer.NextToken()
	assert.Equal(t, STRING, tok.Kind)
	assert.Equal(t, "hello", tok.Lexeme)
}

func TestLexer_MultiCharOperators(t *testing.T) {
	testData := []struct {
		src      string
		expected TokenKind
	}{
		{"->", ARROW}, {"==", EQ}, {"!=", NEQ}, {"=", ASSIGN}, {"!", ERROR},
	}
	for _, td := range testData {
		lexer := NewLexer(td.src)
		tok := lexer.NextToken()
		assert.Equal(t, td.expected, tok.Kind, td.src)
	}
}

func TestLexer_CommentsAndWhitespaceSkipped(t *testing.T) {
	lexer := NewLexer("  # a comment\n  42")
	tok := lexer.NextToken()
	assert.Equal(t, INT, tok.Kind)
	assert.Equal(t, "42", tok.Lexeme)
	assert.Equal(t, 2, tok.Line)
}

func TestLexer_EOFRepeats(t *testing.T) {
	lexer := NewLexer("")
	assert.Equal(t, EOF, lexer.NextToken().Kind)
	assert.Equal(t, EOF, lexer.NextToken().Kind)
}

func TestLexer_LineColumnTracking(t *testing.T) {
	lexer := NewLexer("a\nbb")
	first := lexer.NextToken()
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Column)
	second := lexer.NextToken()
	assert.Equal(t, 2, second.Line)
	assert.Equal(t, 1, second.Column)
}
