package till

import (
	"fmt"
	"strings"
)

// Type represents the primitive types available in till: Char, Num and Bool.
type Type int

const (
	TypeChar Type = iota
	TypeNum
	TypeBool
)

// String returns the type name as written in till source.
func (t Type) String() string {
	switch t {
	case TypeChar:
		return "Char"
	case TypeNum:
		return "Num"
	case TypeBool:
		return "Bool"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// TypeFromIdentifier resolves a written type identifier to a primitive type.
func TypeFromIdentifier(ident string) (Type, error) {
	switch ident {
	case "Char":
		return TypeChar, nil
	case "Num":
		return TypeNum, nil
	case "Bool":
		return TypeBool, nil
	}

	return 0, &NonexistentPrimitiveTypeError{Identifier: ident}
}

// Id identifies a variable, label or function within a compilation unit. Ids
// are dense non-negative integers allocated by the checker; every allocation
// is unique.
type Id int

// Value is a value as pushed onto the IR stack: either immediate data or the
// contents of a variable.
type Value interface{}

// VariableValue is determined by that of the variable with the specified ID.
type VariableValue struct{ ID Id }

// NumValue is an immediate 64-bit float.
type NumValue struct{ Value float64 }

// CharValue is an immediate unicode code point.
type CharValue struct{ Value rune }

// BoolValue is an immediate boolean.
type BoolValue struct{ Value bool }

// Instruction is one of the simple, assembly-like instructions that make up
// the intermediate representation of a till program. Every instruction
// operates on an implicit value stack with a fixed stack effect.
type Instruction interface{}

// Parameter creates a function parameter binding: it allocates a slot for the
// StoreIn variable and fills it from the ParamNumber-th argument of the
// current call frame. No stack effect.
type Parameter struct {
	StoreIn     Id
	ParamNumber int
}

// Local reserves a slot for a variable with the given ID. No stack effect.
type Local struct{ ID Id }

// Store pops a value off the stack and stores it in the specified variable.
type Store struct{ ID Id }

// Push pushes the specified value onto the stack.
type Push struct{ Value Value }

// Label identifies a point in the series of instructions that can be jumped
// to (e.g. the beginning of a loop). No stack effect.
type Label struct{ ID Id }

// Function identifies the start of a function which can later be called.
// Begins a new frame.
type Function struct {
	Label              string
	LocalVariableCount int
}

// CallExpectingVoid jumps to the function with the specified label, returning
// here when a return instruction is encountered. Nothing is pushed: any value
// the called function returns is left in the return register and discarded.
type CallExpectingVoid struct{ Label string }

// CallExpectingValue calls like CallExpectingVoid but pushes the called
// function's return value onto the stack.
type CallExpectingValue struct{ Label string }

// ReturnValue returns from a call, popping the return value off the stack.
// Deallocates the frame.
type ReturnValue struct{}

// ReturnVoid returns from a call without a value. Deallocates the frame.
type ReturnVoid struct{}

// Display pops a value off the stack and displays it via stdout along with
// the source line number it was displayed from.
type Display struct {
	ValueType  Type
	LineNumber uint64
}

// Jump unconditionally jumps to the given label.
type Jump struct{ ID Id }

// JumpIfTrue pops a value off the stack and jumps to the given label if that
// value is true.
type JumpIfTrue struct{ ID Id }

// JumpIfFalse pops a value off the stack and jumps to the given label if that
// value is false.
type JumpIfFalse struct{ ID Id }

// Equals pops 2 items off the stack and pushes true if they are equal, false
// otherwise.
type Equals struct{}

// GreaterThan pops 2 items off the stack and pushes the boolean result of
// comparing them.
type GreaterThan struct{}

// LessThan pops 2 items off the stack and pushes the boolean result of
// comparing them.
type LessThan struct{}

// Add pops 2 items off the stack and pushes their sum.
type Add struct{}

// Subtract pops 2 items off the stack and pushes their difference.
type Subtract struct{}

// Multiply pops 2 items off the stack and pushes their product.
type Multiply struct{}

// Divide pops 2 items off the stack and pushes their quotient.
type Divide struct{}

// Not pops the top of the stack, performs a boolean not, and pushes the
// result.
type Not struct{}

// InstructionString formats a single instruction for debug output.
func InstructionString(instr Instruction) string {
	switch i := instr.(type) {
	case Parameter:
		return fmt.Sprintf("parameter %d -> var%d", i.ParamNumber, i.StoreIn)
	case Local:
		return fmt.Sprintf("local var%d", i.ID)
	case Store:
		return fmt.Sprintf("store var%d", i.ID)
	case Push:
		return fmt.Sprintf("push %s", valueString(i.Value))
	case Label:
		return fmt.Sprintf("label%d:", i.ID)
	case Function:
		return fmt.Sprintf("function %s (%d locals)", i.Label, i.LocalVariableCount)
	case CallExpectingVoid:
		return fmt.Sprintf("call %s", i.Label)
	case CallExpectingValue:
		return fmt.Sprintf("call %s expecting value", i.Label)
	case ReturnValue:
		return "return value"
	case ReturnVoid:
		return "return"
	case Display:
		return fmt.Sprintf("display %s (line %d)", i.ValueType, i.LineNumber)
	case Jump:
		return fmt.Sprintf("jump label%d", i.ID)
	case JumpIfTrue:
		return fmt.Sprintf("jump label%d if true", i.ID)
	case JumpIfFalse:
		return fmt.Sprintf("jump label%d if false", i.ID)
	case Equals:
		return "equals"
	case GreaterThan:
		return "greater than"
	case LessThan:
		return "less than"
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	case Not:
		return "not"
	}

	return fmt.Sprintf("%v", instr)
}

func valueString(val Value) string {
	switch v := val.(type) {
	case VariableValue:
		return fmt.Sprintf("var%d", v.ID)
	case NumValue:
		return fmt.Sprintf("%v", v.Value)
	case CharValue:
		return fmt.Sprintf("%q", v.Value)
	case BoolValue:
		return fmt.Sprintf("%v", v.Value)
	}

	return fmt.Sprintf("%v", val)
}

// DumpInstructions formats a whole IR program, one instruction per line.
func DumpInstructions(instructions []Instruction) string {
	var b strings.Builder
	for _, instr := range instructions {
		b.WriteString(InstructionString(instr))
		b.WriteByte('\n')
	}

	return b.String()
}
