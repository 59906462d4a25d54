package till

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

type Arch string
type Vendor string
type OS string

const (
	X86_64 Arch = "x86_64"

	Unknown Vendor = "unknown"

	Linux OS = "linux"
)

// Target identifies the machine code is generated for. Only
// x86_64-unknown-linux is supported.
type Target struct {
	Arch   Arch
	Vendor Vendor
	OS     OS
}

func (t Target) String() string {
	return fmt.Sprintf("%s-%s-%s", t.Arch, t.Vendor, t.OS)
}

// DefaultTarget returns the only supported compilation target.
func DefaultTarget() Target {
	return Target{
		Arch:   X86_64,
		Vendor: Unknown,
		OS:     Linux,
	}
}

// Compiler wires the compilation pipeline together: stream, lexer, parser,
// checker and code generator, followed by the external assembler and linker.
type Compiler struct {
	target Target
}

func NewCompiler(target Target) *Compiler {
	return &Compiler{
		target: target,
	}
}

// Analyze lexes, parses and checks a source file, returning the checked
// program with its IR and any compile errors found.
func (c *Compiler) Analyze(filename string) (*CheckedProgram, error) {
	tokenizer, err := NewSyntaxTokenizer(filename)
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokenizer)
	checker := NewChecker(parser)

	return checker.Do(), nil
}

// Check reports the compile errors of a source file without generating code.
func (c *Compiler) Check(filename string) ([]error, error) {
	prog, err := c.Analyze(filename)
	if err != nil {
		return nil, err
	}

	return prog.Errors, nil
}

// Emit compiles a source file to assembly text. Compile errors are returned
// separately from operational ones.
func (c *Compiler) Emit(filename string) (string, []error, error) {
	prog, err := c.Analyze(filename)
	if err != nil {
		return "", nil, err
	}

	if len(prog.Errors) != 0 {
		return "", prog.Errors, nil
	}

	return GenerateElf64(prog.Instructions), nil, nil
}

// Compile compiles a source file all the way to an executable next to it.
func (c *Compiler) Compile(filename string) ([]error, error) {
	if c.target != DefaultTarget() {
		return nil, fmt.Errorf("unsupported target %s", c.target)
	}

	asm, compileErrs, err := c.Emit(filename)
	if err != nil || len(compileErrs) != 0 {
		return compileErrs, err
	}

	return nil, c.build(filename, asm)
}

// CompileAll compiles several source files concurrently.
func (c *Compiler) CompileAll(filenames []string) error {
	errs := errgroup.Group{}
	for _, filename := range filenames {
		filename := filename

		errs.Go(func() error {
			compileErrs, err := c.Compile(filename)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}

			if len(compileErrs) != 0 {
				return fmt.Errorf("%s: %w", filename, errors.Join(compileErrs...))
			}

			return nil
		})
	}

	return errs.Wait()
}

// build assembles and links the emitted assembly with the external toolchain:
// nasm for the object file, gcc for the libc link printf requires.
func (c *Compiler) build(sourcePath string, asm string) error {
	outName := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	asmPath := outName + ".asm"
	objPath := outName + ".o"

	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return err
	}

	assemble := exec.Command("nasm", "-f", "elf64", "-o", objPath, asmPath)
	if out, err := assemble.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %s", err, out)
	}

	link := exec.Command("gcc", "-no-pie", "-o", outName, objPath)
	if out, err := link.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %s", err, out)
	}

	return nil
}
