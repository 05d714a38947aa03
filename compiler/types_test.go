package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_EqualPrimitives(t *testing.T) {
	assert.True(t, IntType.Equal(IntType))
	assert.False(t, IntType.Equal(FloatType))
}

func TestType_EqualStructIsNominal(t *testing.T) {
	a := NewStructType("Point", []StructField{{Name: "x", Type: IntType}})
	b := NewStructType("Point", []StructField{{Name: "x", Type: FloatType}})
	c := NewStructType("Vector", []StructField{{Name: "x", Type: IntType}})
	assert.True(t, a.Equal(b), "struct equality is by name only")
	assert.False(t, a.Equal(c))
}

func TestType_EqualArrayIsStructural(t *testing.T) {
	a := NewArrayType(IntType)
	b := NewArrayType(IntType)
	c := NewArrayType(FloatType)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestType_EqualFunctionIsStructural(t *testing.T) {
	a := NewFunctionType([]*Type{IntType, IntType}, BoolType)
	b := NewFunctionType([]*Type{IntType, IntType}, BoolType)
	c := NewFunctionType([]*Type{IntType}, BoolType)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestType_StringNestedArray(t *testing.T) {
	nested := NewArrayType(NewArrayType(NewArrayType(IntType)))
	assert.Equal(t, "int[][][]", nested.String())
}

func TestType_FieldIndexAndType(t *testing.T) {
	s := NewStructType("Point", []StructField{
		{Name: "x", Type: IntType},
		{Name: "y", Type: IntType},
	})
	assert.Equal(t, 1, s.FieldIndex("y"))
	assert.Equal(t, -1, s.FieldIndex("z"))
	assert.Equal(t, IntType, s.FieldType("x"))
	assert.Nil(t, s.FieldType("z"))
}

func TestType_IsNumeric(t *testing.T) {
	assert.True(t, IntType.IsNumeric())
	assert.True(t, FloatType.IsNumeric())
	assert.False(t, BoolType.IsNumeric())
	assert.False(t, StringType.IsNumeric())
}
