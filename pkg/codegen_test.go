package till

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
)

func TestGenerateElf64Arithmetic(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		Function{Label: "main"},
		Push{Value: NumValue{Value: 1.0}},
		Push{Value: NumValue{Value: 2.0}},
		Add{},
		ReturnVoid{},
	})

	for _, line := range []string{
		"section .text",
		"main:",
		"push qword [literal0]",
		"push qword [literal1]",
		"finit",
		"fadd",
		"fst qword [rsp]",
		"pop qword rbp",
		"ret 16",
		"section .rodata",
		"dq 1.0000000000000000",
		"dq 2.0000000000000000",
	} {
		assert.Contains(t, asm, line)
	}
}

func TestGenerateElf64SectionOrder(t *testing.T) {
	asm := GenerateElf64(nil)

	text := strings.Index(asm, "section .text")
	bss := strings.Index(asm, "section .bss")
	rodata := strings.Index(asm, "section .rodata")

	assert.True(t, text >= 0 && text < bss && bss < rodata)

	// The declarations and the main finaliser are always present.
	assert.Contains(t, asm, "extern printf")
	assert.Contains(t, asm, "global main")
	assert.Contains(t, asm, "mov rax, 0\nret 0")
	assert.Contains(t, asm, "display_char:")
	assert.Contains(t, asm, "db `Line %u display (Char type): %c\\n\\0`")
}

func TestGenerateElf64Values(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		Local{ID: 3},
		Push{Value: CharValue{Value: 'A'}},
		Store{ID: 3},
		Push{Value: VariableValue{ID: 3}},
		Push{Value: BoolValue{Value: true}},
		Push{Value: BoolValue{Value: false}},
	})

	for _, line := range []string{
		"var3:",
		"resq 1",
		"push qword 65",
		"pop qword [var3]",
		"push qword [var3]",
		"push qword 1",
		"push qword 0",
	} {
		assert.Contains(t, asm, line)
	}
}

func TestGenerateElf64Parameters(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		Function{Label: "func0"},
		Parameter{StoreIn: 1, ParamNumber: 0},
		Parameter{StoreIn: 2, ParamNumber: 1},
		ReturnVoid{},
	})

	for _, line := range []string{
		"func0:",
		"push qword rbp",
		"mov rbp, rsp",
		"mov rax, [rsp + 16]",
		"mov [var1], rax",
		"mov rax, [rsp + 24]",
		"mov [var2], rax",
	} {
		assert.Contains(t, asm, line)
	}
}

func TestGenerateElf64ControlFlow(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		Label{ID: 4},
		Push{Value: BoolValue{Value: true}},
		JumpIfFalse{ID: 5},
		Jump{ID: 4},
		Label{ID: 5},
		Push{Value: BoolValue{Value: false}},
		JumpIfTrue{ID: 4},
	})

	for _, line := range []string{
		"label4:",
		"label5:",
		"pop qword rax",
		"cmp rax, 0",
		"je label5",
		"jne label4",
		"jmp label4",
	} {
		assert.Contains(t, asm, line)
	}
}

func TestGenerateElf64Calls(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		CallExpectingVoid{Label: "func0"},
		CallExpectingValue{Label: "func1"},
	})

	assert.Contains(t, asm, "call func0")
	assert.Contains(t, asm, "call func1\npush qword rax")
}

func TestGenerateElf64Comparisons(t *testing.T) {
	equals := GenerateElf64([]Instruction{Equals{}})
	assert.Contains(t, equals, strings.Join([]string{
		"pop qword rax",
		"sub rax, [rsp]",
		"pushf",
		"pop qword ax",
		"shr ax, 6",
		"and qword rax, 1",
		"mov [rsp], rax",
	}, "\n"))

	greater := GenerateElf64([]Instruction{GreaterThan{}})
	assert.Contains(t, greater, strings.Join([]string{
		"finit",
		"fld qword [rsp + 8]",
		"fld qword [rsp]",
		"add rsp, 8",
		"fcom",
		"fstsw ax",
		"shr ax, 8",
		"and qword rax, 1",
		"mov [rsp], rax",
	}, "\n"))

	less := GenerateElf64([]Instruction{LessThan{}})
	assert.Contains(t, less, strings.Join([]string{
		"fcom",
		"fstsw ax",
		"mov bx, ax",
		"shr ax, 8",
		"shr bx, 14",
		"or qword ax, bx",
		"not qword ax",
		"and qword rax, 1",
		"mov [rsp], rax",
	}, "\n"))
}

func TestGenerateElf64Not(t *testing.T) {
	asm := GenerateElf64([]Instruction{Not{}})

	assert.Contains(t, asm, "not qword [rsp]\nand qword [rsp], 1")
}

func TestGenerateElf64Display(t *testing.T) {
	asm := GenerateElf64([]Instruction{
		Push{Value: CharValue{Value: 'x'}},
		Display{ValueType: TypeChar, LineNumber: 4},
	})

	assert.Contains(t, asm, strings.Join([]string{
		"mov rdi, display_char",
		"mov rsi, 4",
		"pop qword rdx",
		"mov ax, 0",
		"call printf",
	}, "\n"))

	// Displaying Num and Bool values is acknowledged as unimplemented.
	assert.Panics(t, func() {
		GenerateElf64([]Instruction{Display{ValueType: TypeNum, LineNumber: 1}})
	})
	assert.Panics(t, func() {
		GenerateElf64([]Instruction{Display{ValueType: TypeBool, LineNumber: 1}})
	})
}

func TestGenerateElf64Program(t *testing.T) {
	// The full pipeline output for a small program, pinned as a snapshot.
	prog := checkProgram([]Statement{
		&FuncDecl{
			Identifier: "twice",
			Parameters: []FuncParam{{Identifier: "n", TypeIdentifier: "Num"}},
			ReturnType: "Num",
			Body: []Statement{
				&Return{Value: &BinaryExpr{
					Operation: BinaryMultiplication,
					Op1:       &Identifier{Name: "n"},
					Op2:       &NumberLiteral{Value: 2},
				}},
			},
		},
		mainFn(
			&VariableDecl{Identifier: "x", Value: &FuncCall{Identifier: "twice", Args: []Expression{&NumberLiteral{Value: 21}}}},
			&If{
				Condition: &BinaryExpr{
					Operation: BinaryGreaterThan,
					Op1:       &Identifier{Name: "x"},
					Op2:       &NumberLiteral{Value: 0},
				},
				Block: []Statement{
					&DisplayStmt{Value: &CharLiteral{Value: '!'}},
				},
			},
		),
	})

	assert.Empty(t, prog.Errors)

	snaps.MatchSnapshot(t, GenerateElf64(prog.Instructions))
}
