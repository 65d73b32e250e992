// Package compiler wires the transform passes into the driver
// described by compiler/do_transform.py: identify ignored defs, prepend
// the runtime import, flatten to three-address form, optionally
// auto-pause every call site, run the CPS transform, append the
// handler-registration epilogue, and serialize the result. It is the
// single entry point the CLI (cmd/kappac) and tests call.
package compiler

import (
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/NetSys/kappa/ast"
	"github.com/NetSys/kappa/autopause"
	"github.com/NetSys/kappa/cps"
	"github.com/NetSys/kappa/emit"
	"github.com/NetSys/kappa/flatten"
	"github.com/NetSys/kappa/ignore"
)

// runtimeModule is the name under which the coordinator runtime is
// imported into every compiled program. The compiler synthesizes this
// import itself (rather than requiring the source to already have it)
// so "rt" is reliably resolvable as a global name by the time the CPS
// pass needs to reference rt.CoordinatorCall, rt.Continuation,
// rt.maybe_pause, rt.lambda_handler, and rt.TransformedClassMeta.
const runtimeModule = "rt"

// entryPointName is the top-level function the epilogue registers as
// the program's coordinator entry point, if present.
const entryPointName = "handler"

// Options controls one compilation.
type Options struct {
	// AutoPause runs the autopause pass (see package autopause) after
	// flattening. Off by default: a program that never calls
	// rt.pause() explicitly simply never yields.
	AutoPause bool

	// IgnoreIncantation overrides the docstring marker package ignore
	// looks for. Empty uses ignore.Incantation.
	IgnoreIncantation string
}

// Compile runs the full pipeline over mod and returns the transformed
// module, ready for emit.New().Emit.
func Compile(mod *ast.Module, opts Options) (*ast.Module, error) {
	ignored := ignore.Find(mod, opts.IgnoreIncantation)

	mod = prependRuntimeImport(mod)

	flattened, err := flatten.Module(mod, ignored)
	if err != nil {
		return nil, fmt.Errorf("compiler: flatten: %w", err)
	}

	if opts.AutoPause {
		flattened = autopause.Module(flattened, ignored)
	}

	transformed, err := cps.TransformModule(flattened, ignored)
	if err != nil {
		return nil, fmt.Errorf("compiler: cps: %w", err)
	}

	transformed.Body = append(transformed.Body, handlerEpilogue())
	return transformed, nil
}

// CompileSource runs Compile over src (parsed by parse) and serializes
// the result back to source text.
func CompileSource(src []byte, parse func([]byte) (*ast.Module, error), opts Options) ([]byte, error) {
	mod, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("compiler: parse: %w", err)
	}
	out, err := Compile(mod, opts)
	if err != nil {
		return nil, err
	}
	return emit.New().Emit(out)
}

// prependRuntimeImport inserts "import rt" as the module's first
// statement, skipping the insertion if it's already present (so
// recompiling already-compiled output is idempotent).
func prependRuntimeImport(mod *ast.Module) *ast.Module {
	for _, s := range mod.Body {
		if imp, ok := s.(*ast.Import); ok {
			for _, a := range imp.Names {
				if a.BoundName() == runtimeModule {
					return mod
				}
			}
		}
	}
	runtimeImport := &ast.Import{Names: []ast.Alias{{Name: runtimeModule}}}
	return &ast.Module{Body: append([]ast.Stmt{runtimeImport}, mod.Body...)}
}

// handlerEpilogue builds the
//
//	try:
//	    rt_handler = rt.lambda_handler(handler)
//	except NameError:
//	    pass
//
// statement do_transform.py appends unconditionally, so a module
// defining a top-level "handler" function gets it registered as the
// coordinator's entry point without the source needing to know
// anything about the runtime. A module with no such function simply
// hits the NameError and moves on.
func handlerEpilogue() ast.Stmt {
	return &ast.Try{
		Body: []ast.Stmt{
			ast.AssignTo("rt_handler", ast.CallOf(ast.AttrChain(runtimeModule, "lambda_handler"), ast.LoadName(entryPointName))),
		},
		Handler: &ast.ExceptHandler{
			ExcType: ast.LoadName("NameError"),
			Body:    []ast.Stmt{&ast.Pass{}},
		},
	}
}

// checksumKey is a fixed 32-byte HighwayHash key. Checksum isn't a
// cryptographic or cross-process integrity mechanism -- it exists so
// callers (tests, caching layers) can cheaply tell whether two compiled
// outputs are identical, so a fixed key is fine; it does not need to be
// secret or configurable. Grounded in inspector/graph.Hash.
var checksumKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Checksum returns a fast, non-cryptographic digest of data, suitable
// for detecting whether a compiled module changed between two runs.
func Checksum(data []byte) (uint64, error) {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		return 0, fmt.Errorf("compiler: checksum: %w", err)
	}
	if _, err := h.Write(data); err != nil {
		return 0, fmt.Errorf("compiler: checksum: %w", err)
	}
	return h.Sum64(), nil
}
