// Command kappac is the Kappa compiler's CLI: it parses a Python-like
// source program, runs it through package compiler's pipeline, and
// prints the transformed program. No example repo in the retrieved
// corpus parses CLI flags with anything but the standard library, so
// this file does the same (see DESIGN.md).
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/NetSys/kappa/compiler"
	"github.com/NetSys/kappa/config"
	"github.com/NetSys/kappa/emit"
	"github.com/NetSys/kappa/parsing"
	"github.com/NetSys/kappa/source"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "kappac:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("kappac", flag.ContinueOnError)
	output := fs.String("o", "", "output file (default: stdout)")
	configPath := fs.String("config", "kappa.yaml", "optional configuration manifest")
	autoPause := fs.Bool("auto-pause", false, "insert an opportunistic pause check before every call site")
	ignoreIncantation := fs.String("ignore-incantation", "", "override the docstring marker that exempts a def from transformation")
	printHash := fs.Bool("print-hash", false, "print a checksum of the compiled output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *autoPause {
		opts.AutoPause = true
	}
	if *ignoreIncantation != "" {
		opts.IgnoreIncantation = *ignoreIncantation
	}

	src, err := readInput(fs.Args())
	if err != nil {
		return err
	}

	mod, err := parsing.New().Parse(src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	transformed, err := compiler.Compile(mod, compiler.Options{
		AutoPause:         opts.AutoPause,
		IgnoreIncantation: opts.IgnoreIncantation,
	})
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	out, err := emit.New().Emit(transformed)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	if *printHash {
		sum, err := compiler.Checksum(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "kappac: checksum %016x\n", sum)
	}

	return writeOutput(*output, out)
}

// readInput reads the program source from the positional filename
// argument (resolved through source.Store so file://, mem://, and
// cloud-scheme URLs all work), or from stdin if none is given.
func readInput(positional []string) ([]byte, error) {
	if len(positional) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return source.New().Read(context.Background(), positional[0])
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(data))
		return err
	}
	return source.New().Write(context.Background(), path, data)
}
