// Package llvmir adapts textual LLVM IR, as parsed by github.com/llir/llvm,
// to the lowering core's type model.
//
// ParseType and FromLLIR convert types. InspectFile reads a whole module and
// reports, for every function it declares, the classified signature and
// whether an intrinsic registry can serve the symbol.
package llvmir
