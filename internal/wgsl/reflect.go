package wgsl

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// Stage is a shader pipeline stage.
type Stage uint8

const (
	Vertex Stage = iota + 1
	Fragment
	Compute
)

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	case Compute:
		return "compute"
	default:
		return "unknown"
	}
}

// Binding is one entry-point input or output. Location is -1 for builtins.
// Type is the resolved type spelled in its canonical WGSL form, so aliases
// and shorthand names such as vec4f compare equal to vec4<f32>.
type Binding struct {
	Name     string
	Location int
	Builtin  string
	Type     string
}

// EntryPoint is a reflected @vertex, @fragment or @compute function.
type EntryPoint struct {
	Stage   Stage
	Name    string
	Inputs  []Binding
	Outputs []Binding
}

func located(bs []Binding) []Binding {
	var out []Binding
	for _, b := range bs {
		if b.Location >= 0 {
			out = append(out, b)
		}
	}
	return out
}

// HasBuiltinInput reports whether the entry point reads the named builtin.
func (e *EntryPoint) HasBuiltinInput(name string) bool {
	for _, b := range e.Inputs {
		if b.Builtin == name {
			return true
		}
	}
	return false
}

// Uniform is a var<uniform> declaration. Size is the byte size of its type.
type Uniform struct {
	Group   int
	Binding int
	Name    string
	Type    string
	Size    int
}

// Module is a reflected (and optionally compiled) shader module.
type Module struct {
	Source   string
	SPIRV    []uint32
	Entries  []EntryPoint
	Uniforms []Uniform

	// Consts holds the numeric value of every named, typed const and of
	// every override with a default. Scalars have one component.
	Consts map[string][]float32
}

// Entry returns the first entry point of the given stage.
func (m *Module) Entry(stage Stage) (*EntryPoint, bool) {
	for i := range m.Entries {
		if m.Entries[i].Stage == stage {
			return &m.Entries[i], true
		}
	}
	return nil, false
}

// FloatConst returns a scalar constant.
func (m *Module) FloatConst(name string) (float32, bool) {
	v, ok := m.Consts[name]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// VecConst returns a vec2, vec3 or vec4 constant.
func (m *Module) VecConst(name string) ([]float32, bool) {
	v, ok := m.Consts[name]
	if !ok || len(v) < 2 || len(v) > 4 {
		return nil, false
	}
	return v, true
}

func reflectModule(source string, module *ir.Module) *Module {
	r := reflector{module: module}
	m := &Module{
		Source: source,
		Consts: make(map[string][]float32),
	}

	for _, c := range module.Constants {
		if c.Name == "" || c.IsAbstract {
			continue
		}
		if v, ok := r.eval(c.Init); ok {
			m.Consts[c.Name] = v
		}
	}
	for _, o := range module.Overrides {
		if o.Init == nil {
			continue
		}
		if v, ok := r.eval(*o.Init); ok {
			m.Consts[o.Name] = v
		}
	}

	for _, gv := range module.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		m.Uniforms = append(m.Uniforms, Uniform{
			Group:   int(gv.Binding.Group),
			Binding: int(gv.Binding.Binding),
			Name:    gv.Name,
			Type:    r.typeName(gv.Type),
			Size:    int(ir.TypeSize(module, gv.Type)),
		})
	}

	for _, e := range module.EntryPoints {
		var stage Stage
		switch e.Stage {
		case ir.StageVertex:
			stage = Vertex
		case ir.StageFragment:
			stage = Fragment
		case ir.StageCompute:
			stage = Compute
		default:
			continue
		}
		ep := EntryPoint{Stage: stage, Name: e.Name}
		for _, arg := range e.Function.Arguments {
			ep.Inputs = append(ep.Inputs, r.bindings(arg.Name, arg.Type, arg.Binding)...)
		}
		if res := e.Function.Result; res != nil {
			ep.Outputs = r.bindings("", res.Type, res.Binding)
		}
		m.Entries = append(m.Entries, ep)
	}
	return m
}

type reflector struct {
	module *ir.Module
}

// bindings flattens an entry-point argument or result. An unbound struct
// contributes its members.
func (r reflector) bindings(name string, th ir.TypeHandle, binding *ir.Binding) []Binding {
	if binding == nil {
		st, ok := r.inner(th).(ir.StructType)
		if !ok {
			return nil
		}
		var out []Binding
		for _, member := range st.Members {
			out = append(out, r.bindings(member.Name, member.Type, member.Binding)...)
		}
		return out
	}

	b := Binding{Name: name, Location: -1, Type: r.typeName(th)}
	switch v := (*binding).(type) {
	case ir.LocationBinding:
		b.Location = int(v.Location)
	case ir.BuiltinBinding:
		b.Builtin = builtinName(v.Builtin)
	}
	return []Binding{b}
}

func (r reflector) inner(th ir.TypeHandle) ir.TypeInner {
	if int(th) >= len(r.module.Types) {
		return nil
	}
	return r.module.Types[th].Inner
}

// typeName spells a type the way WGSL writes it without shorthands.
// Structs keep their declared name.
func (r reflector) typeName(th ir.TypeHandle) string {
	switch t := r.inner(th).(type) {
	case ir.ScalarType:
		return scalarName(t)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", t.Columns, t.Rows, scalarName(t.Scalar))
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return fmt.Sprintf("array<%s>", r.typeName(t.Base))
		}
		return fmt.Sprintf("array<%s, %d>", r.typeName(t.Base), *t.Size.Constant)
	case nil:
		return "<invalid>"
	default:
		if name := r.module.Types[th].Name; name != "" {
			return name
		}
		return fmt.Sprintf("%T", t)
	}
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarFloat:
		return fmt.Sprintf("f%d", s.Width*8)
	case ir.ScalarSint:
		return fmt.Sprintf("i%d", s.Width*8)
	case ir.ScalarUint:
		return fmt.Sprintf("u%d", s.Width*8)
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarAbstractInt:
		return "abstract-int"
	default:
		return "abstract-float"
	}
}

var builtinNames = map[ir.BuiltinValue]string{
	ir.BuiltinPosition:             "position",
	ir.BuiltinVertexIndex:          "vertex_index",
	ir.BuiltinInstanceIndex:        "instance_index",
	ir.BuiltinFrontFacing:          "front_facing",
	ir.BuiltinFragDepth:            "frag_depth",
	ir.BuiltinSampleIndex:          "sample_index",
	ir.BuiltinSampleMask:           "sample_mask",
	ir.BuiltinLocalInvocationID:    "local_invocation_id",
	ir.BuiltinLocalInvocationIndex: "local_invocation_index",
	ir.BuiltinGlobalInvocationID:   "global_invocation_id",
	ir.BuiltinWorkGroupID:          "workgroup_id",
	ir.BuiltinNumWorkGroups:        "num_workgroups",
}

func builtinName(b ir.BuiltinValue) string {
	if name, ok := builtinNames[b]; ok {
		return name
	}
	return fmt.Sprintf("builtin(%d)", b)
}

// eval folds a module-scope expression to its numeric components.
func (r reflector) eval(h ir.ExpressionHandle) ([]float32, bool) {
	if int(h) >= len(r.module.GlobalExpressions) {
		return nil, false
	}
	switch e := r.module.GlobalExpressions[h].Kind.(type) {
	case ir.Literal:
		v, ok := literalValue(e.Value)
		if !ok {
			return nil, false
		}
		return []float32{v}, true
	case ir.ExprConstant:
		if int(e.Constant) >= len(r.module.Constants) {
			return nil, false
		}
		return r.eval(r.module.Constants[e.Constant].Init)
	case ir.ExprCompose:
		var out []float32
		for _, c := range e.Components {
			v, ok := r.eval(c)
			if !ok {
				return nil, false
			}
			out = append(out, v...)
		}
		return out, true
	case ir.ExprSplat:
		v, ok := r.eval(e.Value)
		if !ok || len(v) != 1 {
			return nil, false
		}
		out := make([]float32, e.Size)
		for i := range out {
			out[i] = v[0]
		}
		return out, true
	case ir.ExprZeroValue:
		n := r.components(e.Type)
		if n == 0 {
			return nil, false
		}
		return make([]float32, n), true
	default:
		return nil, false
	}
}

func (r reflector) components(th ir.TypeHandle) int {
	switch t := r.inner(th).(type) {
	case ir.ScalarType:
		return 1
	case ir.VectorType:
		return int(t.Size)
	case ir.MatrixType:
		return int(t.Columns) * int(t.Rows)
	default:
		return 0
	}
}

func literalValue(v ir.LiteralValue) (float32, bool) {
	switch v := v.(type) {
	case ir.LiteralF32:
		return float32(v), true
	case ir.LiteralF16:
		return float32(v), true
	case ir.LiteralF64:
		return float32(v), true
	case ir.LiteralAbstractFloat:
		return float32(v), true
	case ir.LiteralI32:
		return float32(v), true
	case ir.LiteralU32:
		return float32(v), true
	case ir.LiteralI64:
		return float32(v), true
	case ir.LiteralU64:
		return float32(v), true
	case ir.LiteralAbstractInt:
		return float32(v), true
	default:
		return 0, false
	}
}
