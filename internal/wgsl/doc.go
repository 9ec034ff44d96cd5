// Package wgsl compiles WGSL shader modules with naga and reflects the
// parts of their interface that a pipeline needs: entry points, located
// inputs and outputs, uniform bindings and module-scope constants.
//
// Reflection reads naga's IR, so types are resolved through the module's
// type arena: an alias and the type it names reflect identically. Only
// consts with a concrete type (and overrides with a default) are reflected;
// an untyped const is folded into its uses and does not survive lowering.
package wgsl
