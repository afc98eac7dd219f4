// mexc is the batch front end: compile and run a source file, or stop after
// the stage you want to inspect (tokens, ast, check).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mexlab/pkg/compiler"
	"mexlab/pkg/kernel"
)

func main() {
	root := &cobra.Command{
		Use:           "mexc",
		Short:         "mexc compiles and runs MATLAB-style source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), tokensCmd(), astCmd(), checkCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mexc:", err)
		os.Exit(1)
	}
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.m>",
		Short: "Compile and execute a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			session := kernel.NewSession(cmd.OutOrStdout())
			return session.Execute(src)
		},
	}
}

func tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file.m>",
		Short: "Print the token stream and stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := compiler.Lex(src)
			if err != nil {
				return err
			}
			for _, tok := range tokens {
				fmt.Fprintln(cmd.OutOrStdout(), tok)
			}
			return nil
		},
	}
}

func astCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <file.m>",
		Short: "Print the parsed program and stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, err := compiler.Lex(src)
			if err != nil {
				return err
			}
			prog, err := compiler.Parse(tokens, src)
			if err != nil {
				return err
			}
			for _, stmt := range prog.Stmts {
				fmt.Fprintln(cmd.OutOrStdout(), stmt.String())
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.m>",
		Short: "Compile without running and report what the unit touches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			unit, err := compiler.Compile(src, compiler.NewSymTable())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ok")
			if len(unit.Manifest.Reads) > 0 {
				fmt.Fprintln(out, "reads: ", unit.Manifest.Reads)
			}
			if len(unit.Manifest.Writes) > 0 {
				fmt.Fprintln(out, "writes:", unit.Manifest.Writes)
			}
			for _, fn := range unit.Manifest.Functions {
				fmt.Fprintf(out, "function %s: %d in, %d out\n", fn.Name, fn.NumIn, fn.NumOut)
			}
			return nil
		},
	}
}
