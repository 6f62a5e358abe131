// Package ir provides the type system and runtime value model shared by the
// lowering core.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// type system the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Type is a sealed interface; Classify maps every well-formed Type to
//     exactly one TypeTag and never fails
//   - Vector elements are restricted to primitive numeric or pointer types
//   - Value is a sealed interface; aggregates travel as Address references
//   - Byte images are little-endian (x86-64 System V data layout)
package ir
