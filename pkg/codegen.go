package till

import (
	"fmt"
	"strings"
)

const targetName = "Linux elf64"

// GenerateElf64 consumes a complete IR instruction vector and produces the
// program as x86-64 assembly text in Intel syntax, NASM-compatible, laid out
// as a .text, a .bss and a .rodata section. The IR is assumed well-typed;
// codegen has no error path.
func GenerateElf64(instructions []Instruction) string {
	g := newElf64Generator()
	for _, instr := range instructions {
		g.handle(instr)
	}

	return g.output()
}

// elf64Generator accumulates the three output sections while walking the IR.
// Every Num push gets its own .rodata literal under a counter-allocated label;
// equal values are not shared.
type elf64Generator struct {
	text         []string
	bss          []string
	rodata       []string
	literalCount int
}

func newElf64Generator() *elf64Generator {
	return &elf64Generator{
		text: []string{
			fmt.Sprintf("; Target: %s", targetName),
			"section .text",
			"extern printf",
			"global main",
			"main:",
		},
		bss:    []string{"section .bss"},
		rodata: []string{"section .rodata"},
	}
}

func (g *elf64Generator) textf(format string, args ...interface{}) {
	g.text = append(g.text, fmt.Sprintf(format, args...))
}

func (g *elf64Generator) bssf(format string, args ...interface{}) {
	g.bss = append(g.bss, fmt.Sprintf(format, args...))
}

func (g *elf64Generator) rodataf(format string, args ...interface{}) {
	g.rodata = append(g.rodata, fmt.Sprintf(format, args...))
}

func varLabel(id Id) string {
	return fmt.Sprintf("var%d", id)
}

func jumpLabel(id Id) string {
	return fmt.Sprintf("label%d", id)
}

func literalLabel(counter int) string {
	return fmt.Sprintf("literal%d", counter)
}

// reserve reserves a qword of .bss space for the variable with the given ID.
func (g *elf64Generator) reserve(id Id) {
	g.bssf("%s:", varLabel(id))
	g.bssf("resq 1")
}

func (g *elf64Generator) handle(instr Instruction) {
	switch i := instr.(type) {
	case Local:
		g.reserve(i.ID)

	case Parameter:
		g.reserve(i.StoreIn)

		// Store the function argument in the parameter's variable. Arguments
		// sit above the return address and the saved base pointer.
		g.textf("mov rax, [rsp + %d]", 16+i.ParamNumber*8)
		g.textf("mov [%s], rax", varLabel(i.StoreIn))

	case Push:
		switch v := i.Value.(type) {
		case NumValue:
			label := literalLabel(g.literalCount)
			g.literalCount++

			g.rodataf("%s:", label)
			g.rodataf("dq %.16f", v.Value)

			g.textf("push qword [%s]", label)
		case VariableValue:
			g.textf("push qword [%s]", varLabel(v.ID))
		case CharValue:
			g.textf("push qword %d", v.Value)
		case BoolValue:
			if v.Value {
				g.textf("push qword 1")
			} else {
				g.textf("push qword 0")
			}
		}

	case Store:
		g.textf("pop qword [%s]", varLabel(i.ID))

	case Label:
		g.textf("%s:", jumpLabel(i.ID))

	case Function:
		g.textf("%s:", i.Label)
		// Preserve the base pointer of the previous frame and begin a new
		// frame at the current stack top.
		g.textf("push qword rbp")
		g.textf("mov rbp, rsp")

	case CallExpectingVoid:
		g.textf("call %s", i.Label)

	case CallExpectingValue:
		g.textf("call %s", i.Label)
		// Place the function return value on the stack.
		g.textf("push qword rax")

	case ReturnVoid:
		g.returnInstructions()

	case ReturnValue:
		// Place the function return value in a register.
		g.textf("pop qword rax")
		g.returnInstructions()

	case Display:
		g.display(i)

	case Jump:
		g.textf("jmp %s", jumpLabel(i.ID))

	case JumpIfTrue:
		g.popAndCompareWithZero()
		// Jump if the top of the stack was not equal to 0.
		g.textf("jne %s", jumpLabel(i.ID))

	case JumpIfFalse:
		g.popAndCompareWithZero()
		// Jump if the top of the stack equalled 0.
		g.textf("je %s", jumpLabel(i.ID))

	case Equals:
		// Take the first value in the comparison off the stack and subtract
		// the second from it, then extract the zero flag.
		g.textf("pop qword rax")
		g.textf("sub rax, [rsp]")
		g.textf("pushf")
		g.textf("pop qword ax")
		g.textf("shr ax, 6")
		g.textf("and qword rax, 1")
		g.textf("mov [rsp], rax")

	case Add:
		g.arithmetic("fadd")
	case Subtract:
		g.arithmetic("fsub")
	case Multiply:
		g.arithmetic("fmul")
	case Divide:
		g.arithmetic("fdiv")

	case GreaterThan:
		// The carry flag of the FPU status word indicates greater than here.
		g.comparison(func() {
			g.textf("shr ax, 8")
		})

	case LessThan:
		g.comparison(func() {
			// Create a second copy of the FPU status word, move the carry
			// flag into the least significant bit of ax and the zero flag
			// into the least significant bit of bx. Both flags being 0
			// indicates less than.
			g.textf("mov bx, ax")
			g.textf("shr ax, 8")
			g.textf("shr bx, 14")
			g.textf("or qword ax, bx")
			g.textf("not qword ax")
		})

	case Not:
		// Perform bitwise not on the value on top of the stack, then discard
		// all bits except the least significant.
		g.textf("not qword [rsp]")
		g.textf("and qword [rsp], 1")
	}
}

// returnInstructions restores the base pointer of the previous frame and
// returns with ret 16, which releases a fixed 16 bytes of stack above the
// return address whatever the number of call arguments.
func (g *elf64Generator) returnInstructions() {
	g.textf("pop qword rbp")
	g.textf("ret 16")
}

func (g *elf64Generator) popAndCompareWithZero() {
	g.textf("pop qword rax")
	g.textf("cmp rax, 0")
}

// twoStackItemsToFpuStack loads both operands of a binary operation onto the
// FPU stack and leaves rsp pointing at the slot the result will occupy.
func (g *elf64Generator) twoStackItemsToFpuStack() {
	g.textf("finit")
	g.textf("fld qword [rsp + 8]")
	g.textf("fld qword [rsp]")
	g.textf("add rsp, 8")
}

func (g *elf64Generator) arithmetic(operation string) {
	g.twoStackItemsToFpuStack()
	g.textf("%s", operation)
	// Move the result from the FPU stack to the regular stack.
	g.textf("fst qword [rsp]")
}

// comparison compares the two topmost stack items on the FPU, stores the FPU
// status word in ax, lets extract place the relevant condition bit at bit 0,
// and writes the masked 0/1 result over the remaining operand slot.
func (g *elf64Generator) comparison(extract func()) {
	g.twoStackItemsToFpuStack()

	g.textf("fcom")
	g.textf("fstsw ax")

	extract()

	g.textf("and qword rax, 1")
	g.textf("mov [rsp], rax")
}

func (g *elf64Generator) display(i Display) {
	if i.ValueType != TypeChar {
		panic(fmt.Sprintf("display of %s values is not implemented", i.ValueType))
	}

	// Arguments to printf: the format string, the source line number, and the
	// displayed value popped off the stack. ax holds the number of vector
	// registers used (none).
	g.textf("mov rdi, display_char")
	g.textf("mov rsi, %d", i.LineNumber)
	g.textf("pop qword rdx")
	g.textf("mov ax, 0")
	g.textf("call printf")
}

// output finalises main, declares the display_char format string, and stitches
// the sections together in .text, .bss, .rodata order.
func (g *elf64Generator) output() string {
	g.textf("mov rax, 0")
	g.textf("ret 0")

	g.rodataf("display_char:")
	g.rodataf("db `Line %%u display (Char type): %%c\\n\\0`")

	lines := make([]string, 0, len(g.text)+len(g.bss)+len(g.rodata))
	lines = append(lines, g.text...)
	lines = append(lines, g.bss...)
	lines = append(lines, g.rodata...)

	return strings.Join(lines, "\n") + "\n"
}
