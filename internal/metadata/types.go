package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"periphgen/internal/common"
)

// Descriptor is a validated, typed peripheral description. It is immutable
// for the duration of a generation run.
type Descriptor struct {
	// Family is the owning hardware family (e.g. "stm32f4").
	Family string `yaml:"family" toml:"family"`
	// Vendor is the owning vendor (e.g. "st").
	Vendor string `yaml:"vendor" toml:"vendor"`
	// Peripheral is the peripheral name (e.g. "UART").
	Peripheral string `yaml:"peripheral_name" toml:"peripheral_name"`
	// RegisterInclude references the imported register map by peripheral name.
	RegisterInclude string `yaml:"register_include" toml:"register_include"`
	// TemplateParams are the ordered compile-time parameters of the policy
	// struct (e.g. base address, clock frequency).
	TemplateParams []TemplateParam `yaml:"template_params" toml:"template_params"`
	// Constants are named compile-time constants emitted verbatim.
	Constants []Constant `yaml:"constants" toml:"constants"`
	// PolicyMethods are the hardware-access operations, sorted by name after
	// loading so that both serializations normalize to the same order.
	PolicyMethods []PolicyMethod `yaml:"-" toml:"-"`
	// Instances are the concrete peripheral instances.
	Instances []Instance `yaml:"instances" toml:"instances"`

	// SourcePath is the document this descriptor was loaded from.
	SourcePath string `yaml:"-" toml:"-"`
}

// ID returns the vendor/family/peripheral identity used by the manifest
// dependency graph.
func (d *Descriptor) ID() string {
	return d.Vendor + "/" + d.Family + "/" + d.Peripheral
}

// TemplateParam is a single compile-time parameter of the policy struct.
type TemplateParam struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// Constant is a named compile-time constant.
type Constant struct {
	Name  string       `yaml:"name" toml:"name"`
	Type  string       `yaml:"type" toml:"type"`
	Value ScalarString `yaml:"value" toml:"value"`
}

// ScalarString accepts any YAML scalar (string, integer, float, bool) and
// normalizes it to its literal text, so constant values keep the exact form
// needed for emission.
type ScalarString string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ScalarString) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		*s = ScalarString(str)
		return nil
	}

	var i int64
	if err := unmarshal(&i); err == nil {
		*s = ScalarString(strconv.FormatInt(i, 10))
		return nil
	}

	var u uint64
	if err := unmarshal(&u); err == nil {
		*s = ScalarString(strconv.FormatUint(u, 10))
		return nil
	}

	var f float64
	if err := unmarshal(&f); err == nil {
		*s = ScalarString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil
	}

	var b bool
	if err := unmarshal(&b); err == nil {
		*s = ScalarString(strconv.FormatBool(b))
		return nil
	}

	return errors.New("expected scalar value")
}

// PolicyMethod is a single declaratively specified hardware-access operation,
// rendered into one static accessor.
type PolicyMethod struct {
	// Name is the method name; filled from the policy_methods mapping key.
	Name string `yaml:"-" toml:"-"`
	// Description is the human-readable doc string.
	Description string `yaml:"description" toml:"description"`
	// Params is the ordered parameter list.
	Params []Param `yaml:"parameters" toml:"parameters"`
	// ReturnType is the C++ return type; empty means void.
	ReturnType string `yaml:"return_type" toml:"return_type"`
	// Ops is the sequence of register operations forming the body.
	Ops []RegisterOp `yaml:"code" toml:"code"`
	// TestHook is an optional mock-substitution identifier.
	TestHook string `yaml:"test_hook" toml:"test_hook"`
}

// Param is a single method parameter.
type Param struct {
	Name    string `yaml:"name" toml:"name"`
	Type    string `yaml:"type" toml:"type"`
	Default string `yaml:"default,omitempty" toml:"default,omitempty"`
}

// OpAction enumerates the closed set of register operations a policy method
// body may perform.
type OpAction string

const (
	OpWrite OpAction = "write" // store a value into a register
	OpSet   OpAction = "set"   // OR a mask into a register
	OpClear OpAction = "clear" // AND the complement of a mask into a register
	OpRead  OpAction = "read"  // load a register (optionally a single field)
	OpWait  OpAction = "wait"  // spin until a mask reads non-zero
)

// IsValid returns true if the action is a recognized value.
func (a OpAction) IsValid() bool {
	switch a {
	case OpWrite, OpSet, OpClear, OpRead, OpWait:
		return true
	default:
		return false
	}
}

// RegisterOp is a single register operation inside a policy method body.
// YAML supports a compact one-key form in addition to the explicit form:
//
//	- {write: CR, value: 0x3}
//	- {set: CR, field: EN}
//	- {action: wait, register: SR, field: RXNE}
//
// TOML documents use the explicit form only.
type RegisterOp struct {
	// Action is what the operation does.
	Action OpAction `yaml:"action" toml:"action"`
	// Register names the target register in the register map.
	Register string `yaml:"register" toml:"register"`
	// Field optionally names a bitfield of Register; the operation then uses
	// the field's mask/position instead of a raw value.
	Field string `yaml:"field,omitempty" toml:"field,omitempty"`
	// Value is the literal operand, when the operation takes one.
	Value *uint64 `yaml:"value,omitempty" toml:"value,omitempty"`
	// Param names a method parameter used as the operand instead of Value.
	Param string `yaml:"param,omitempty" toml:"param,omitempty"`
}

// String returns a short human-readable form used in diagnostics.
func (op RegisterOp) String() string {
	target := op.Register
	if op.Field != "" {
		target += "." + op.Field
	}

	switch {
	case op.Value != nil:
		return fmt.Sprintf("%s %s %s", op.Action, target, common.Hex(*op.Value))
	case op.Param != "":
		return fmt.Sprintf("%s %s %s", op.Action, target, op.Param)
	default:
		return fmt.Sprintf("%s %s", op.Action, target)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting both the explicit and
// the compact one-key form.
func (op *RegisterOp) UnmarshalYAML(unmarshal func(any) error) error {
	var m map[string]any
	if err := unmarshal(&m); err != nil {
		return errors.New("expected mapping for register operation")
	}

	if action, ok := m["action"]; ok {
		s, ok := action.(string)
		if !ok {
			return errors.New("expected string for action")
		}

		op.Action = OpAction(s)
	} else {
		// Compact form: exactly one key must be a known action.
		for _, a := range []OpAction{OpWrite, OpSet, OpClear, OpRead, OpWait} {
			v, ok := m[string(a)]
			if !ok {
				continue
			}

			if op.Action != "" {
				return fmt.Errorf("ambiguous register operation: both %s and %s", op.Action, a)
			}

			reg, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected register name for %s", a)
			}

			op.Action = a
			op.Register = reg
		}
	}

	if op.Action == "" {
		return errors.New("register operation has no action")
	}

	if reg, ok := m["register"]; ok {
		s, ok := reg.(string)
		if !ok {
			return errors.New("expected string for register")
		}

		op.Register = s
	}

	if f, ok := m["field"]; ok {
		s, ok := f.(string)
		if !ok {
			return errors.New("expected string for field")
		}

		op.Field = s
	}

	if p, ok := m["param"]; ok {
		s, ok := p.(string)
		if !ok {
			return errors.New("expected string for param")
		}

		op.Param = s
	}

	if raw, ok := m["value"]; ok {
		v, err := scalarToUint64(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s %s: %w", op.Action, op.Register, err)
		}

		op.Value = &v
	}

	return nil
}

// scalarToUint64 converts the loosely-typed scalars yaml produces into the
// operand type. Strings are parsed with flexible base so "0x3" works.
func scalarToUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}

		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}

		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		return strconv.ParseUint(v, 0, 64)
	default:
		return 0, fmt.Errorf("unsupported operand type %T", raw)
	}
}

// Instance is a concrete peripheral instance bound to an address and clock.
type Instance struct {
	Name string `yaml:"name" toml:"name"`
	Base uint64 `yaml:"base" toml:"base"`
	// Clock is the instance clock in Hz; optional.
	Clock *uint64 `yaml:"clock,omitempty" toml:"clock,omitempty"`
}

// rawDescriptor mirrors the on-disk document shape: policy methods keyed by
// name. It is normalized into Descriptor after parsing.
type rawDescriptor struct {
	Family          string                  `yaml:"family" toml:"family"`
	Vendor          string                  `yaml:"vendor" toml:"vendor"`
	Peripheral      string                  `yaml:"peripheral_name" toml:"peripheral_name"`
	RegisterInclude string                  `yaml:"register_include" toml:"register_include"`
	TemplateParams  []TemplateParam         `yaml:"template_params" toml:"template_params"`
	Constants       []Constant              `yaml:"constants" toml:"constants"`
	PolicyMethods   map[string]PolicyMethod `yaml:"policy_methods" toml:"policy_methods"`
	Instances       []Instance              `yaml:"instances" toml:"instances"`
}

// normalize converts the raw document into the typed descriptor. Policy
// methods are sorted by name so that the same logical descriptor renders
// byte-identically regardless of serialization or key order.
func (r *rawDescriptor) normalize(path string) *Descriptor {
	d := &Descriptor{
		Family:          r.Family,
		Vendor:          r.Vendor,
		Peripheral:      r.Peripheral,
		RegisterInclude: r.RegisterInclude,
		TemplateParams:  r.TemplateParams,
		Constants:       r.Constants,
		Instances:       r.Instances,
		SourcePath:      path,
	}

	names := make([]string, 0, len(r.PolicyMethods))
	for name := range r.PolicyMethods {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		pm := r.PolicyMethods[name]
		pm.Name = name
		d.PolicyMethods = append(d.PolicyMethods, pm)
	}

	return d
}
