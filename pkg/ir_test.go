package till

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeFromIdentifier(t *testing.T) {
	for ident, expect := range map[string]Type{
		"Num":  TypeNum,
		"Char": TypeChar,
		"Bool": TypeBool,
	} {
		got, err := TypeFromIdentifier(ident)
		assert.NoError(t, err)
		assert.Equal(t, expect, got)
	}

	_, err := TypeFromIdentifier("Int")
	assert.IsType(t, &NonexistentPrimitiveTypeError{}, err)
}

func TestDumpInstructions(t *testing.T) {
	dump := DumpInstructions([]Instruction{
		Jump{ID: 1},
		Function{Label: "func0", LocalVariableCount: 1},
		Parameter{StoreIn: 2, ParamNumber: 0},
		Push{Value: NumValue{Value: 1.5}},
		Push{Value: VariableValue{ID: 2}},
		Push{Value: CharValue{Value: 'x'}},
		Push{Value: BoolValue{Value: true}},
		Store{ID: 2},
		Equals{},
		ReturnValue{},
		Label{ID: 1},
		CallExpectingVoid{Label: "func0"},
	})

	expect := `jump label1
function func0 (1 locals)
parameter 0 -> var2
push 1.5
push var2
push 'x'
push true
store var2
equals
return value
label1:
call func0
`

	assert.Equal(t, expect, dump)
}
