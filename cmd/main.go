package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.till.dev/pkg"
)

var (
	emitAsm bool
	emitIR  bool
)

var rootCmd = &cobra.Command{
	Use:   "till",
	Short: "Compiler for the till programming language",
	Long: `till is a small statically-typed imperative language with three
primitive types (Num, Char, Bool), lexical scoping, first-order
functions, and if/while control flow, compiled to x86-64 assembly
for Linux.`,
}

var buildCmd = &cobra.Command{
	Use:   "build [files]",
	Short: "Compile till source files to executables",
	Long: `Compile one or more till source files. Each file is compiled to an
executable of the same name next to it, using nasm and gcc.

Examples:
  # Compile a program
  till build program.till

  # Print the generated assembly instead of assembling it
  till build --emit-asm program.till

  # Print the intermediate representation
  till build --emit-ir program.till`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

var checkCmd = &cobra.Command{
	Use:   "check [files]",
	Short: "Check till source files without generating code",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)

	buildCmd.Flags().BoolVar(&emitAsm, "emit-asm", false, "print the generated assembly instead of assembling it")
	buildCmd.Flags().BoolVar(&emitIR, "emit-ir", false, "print the intermediate representation instead of assembling")
}

func runBuild(_ *cobra.Command, args []string) error {
	c := till.NewCompiler(till.DefaultTarget())

	if emitAsm || emitIR {
		for _, filename := range args {
			prog, err := c.Analyze(filename)
			if err != nil {
				return err
			}

			if reportErrors(filename, prog.Errors) {
				os.Exit(1)
			}

			if emitIR {
				fmt.Print(till.DumpInstructions(prog.Instructions))
			} else {
				fmt.Print(till.GenerateElf64(prog.Instructions))
			}
		}

		return nil
	}

	return c.CompileAll(args)
}

func runCheck(_ *cobra.Command, args []string) error {
	c := till.NewCompiler(till.DefaultTarget())

	failed := false
	for _, filename := range args {
		errs, err := c.Check(filename)
		if err != nil {
			return err
		}

		failed = reportErrors(filename, errs) || failed
	}

	if failed {
		os.Exit(1)
	}

	return nil
}

func reportErrors(filename string, errs []error) bool {
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "%s: %s\n", filename, err)
	}

	return len(errs) != 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
