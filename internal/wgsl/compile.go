package wgsl

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// Compile runs source through naga (parse, lower, validate, SPIR-V) and
// reflects the module interface from the validated IR. The returned error
// carries naga's diagnostic text.
func Compile(source string) (*Module, error) {
	module, err := lower(source)
	if err != nil {
		return nil, err
	}

	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", verrs[0])
	}

	m := reflectModule(source, module)

	spirvBytes, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("naga produced %d bytes, not a whole number of SPIR-V words", len(spirvBytes))
	}
	m.SPIRV = words(spirvBytes)
	return m, nil
}

// Reflect parses and lowers source and reflects its interface without
// validating it or generating code.
func Reflect(source string) (*Module, error) {
	module, err := lower(source)
	if err != nil {
		return nil, err
	}
	return reflectModule(source, module), nil
}

func lower(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	return module, nil
}

// words converts little-endian SPIR-V bytes to 32-bit words.
func words(b []byte) []uint32 {
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return code
}
