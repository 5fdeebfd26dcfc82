// Package idl describes the program in the Anchor IDL JSON schema so that
// existing Solana tooling can build instructions and decode accounts and
// events without Go bindings.
package idl

import (
	"encoding/json"
	"fmt"
	"os"
)

// IDL represents an Anchor IDL (Interface Definition Language) structure.
type IDL struct {
	Address      string           `json:"address"`
	Metadata     IDLMetadata      `json:"metadata"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccountDef  `json:"accounts"`
	Events       []IDLEvent       `json:"events"`
	Errors       []IDLError       `json:"errors"`
	Types        []IDLTypeDef     `json:"types"`
	Constants    []IDLConstant    `json:"constants,omitempty"`
}

// IDLMetadata contains program metadata.
type IDLMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Spec        string `json:"spec"`
	Description string `json:"description,omitempty"`
}

// IDLInstruction represents a program instruction.
type IDLInstruction struct {
	Name          string           `json:"name"`
	Discriminator []int            `json:"discriminator"`
	Accounts      []IDLAccountMeta `json:"accounts"`
	Args          []IDLField       `json:"args"`
	Docs          []string         `json:"docs,omitempty"`
}

// IDLAccountMeta represents an account in an instruction.
type IDLAccountMeta struct {
	Name     string   `json:"name"`
	Writable bool     `json:"writable,omitempty"`
	Signer   bool     `json:"signer,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	Address  string   `json:"address,omitempty"`
	Docs     []string `json:"docs,omitempty"`
}

// IDLAccountDef names an account type. Its layout is the type of the same
// name in Types.
type IDLAccountDef struct {
	Name          string `json:"name"`
	Discriminator []int  `json:"discriminator"`
}

// IDLEvent names an event type. Its layout is the type of the same name in
// Types.
type IDLEvent struct {
	Name          string `json:"name"`
	Discriminator []int  `json:"discriminator"`
}

// IDLError represents a program error.
type IDLError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// IDLTypeDef represents a custom type definition.
type IDLTypeDef struct {
	Name string   `json:"name"`
	Docs []string `json:"docs,omitempty"`
	Type IDLType  `json:"type"`
}

// IDLType is a primitive (Kind only), a reference to a defined type, a
// fixed-size array or a struct. Primitives marshal as a bare string.
type IDLType struct {
	Kind    string          `json:"kind,omitempty"`
	Defined *IDLDefinedType `json:"defined,omitempty"`
	Array   *IDLArrayType   `json:"array,omitempty"`
	Fields  []IDLField      `json:"fields,omitempty"`
}

// IDLDefinedType references a defined type.
type IDLDefinedType struct {
	Name string `json:"name"`
}

// IDLArrayType represents a fixed-size array.
type IDLArrayType struct {
	Type IDLType
	Len  int
}

// IDLField represents a field in a struct, event, or instruction.
type IDLField struct {
	Name string   `json:"name"`
	Type IDLType  `json:"type"`
	Docs []string `json:"docs,omitempty"`
}

// IDLConstant represents a constant definition.
type IDLConstant struct {
	Name  string  `json:"name"`
	Type  IDLType `json:"type"`
	Value string  `json:"value"`
}

func primitive(kind string) IDLType { return IDLType{Kind: kind} }

func (t IDLType) isPrimitive() bool {
	return t.Kind != "" && t.Kind != "struct" && t.Defined == nil && t.Array == nil
}

// MarshalJSON writes primitives as "u64", arrays as {"array": [type, len]}
// and structs as {"kind": "struct", "fields": [...]}.
func (t IDLType) MarshalJSON() ([]byte, error) {
	switch {
	case t.isPrimitive():
		return json.Marshal(t.Kind)
	case t.Array != nil:
		return json.Marshal(map[string][]any{"array": {t.Array.Type, t.Array.Len}})
	case t.Defined != nil:
		return json.Marshal(map[string]*IDLDefinedType{"defined": t.Defined})
	default:
		return json.Marshal(struct {
			Kind   string     `json:"kind"`
			Fields []IDLField `json:"fields"`
		}{"struct", t.Fields})
	}
}

func (t *IDLType) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*t = primitive(kind)
		return nil
	}

	var obj struct {
		Kind    string            `json:"kind"`
		Fields  []IDLField        `json:"fields"`
		Defined json.RawMessage   `json:"defined"`
		Array   []json.RawMessage `json:"array"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid IDL type %s: %w", data, err)
	}
	switch {
	case len(obj.Array) == 2:
		var arr IDLArrayType
		if err := json.Unmarshal(obj.Array[0], &arr.Type); err != nil {
			return err
		}
		if err := json.Unmarshal(obj.Array[1], &arr.Len); err != nil {
			return err
		}
		*t = IDLType{Array: &arr}
	case len(obj.Defined) > 0:
		var def IDLDefinedType
		if err := json.Unmarshal(obj.Defined, &def); err != nil {
			// Older IDLs reference defined types by bare name.
			if err := json.Unmarshal(obj.Defined, &def.Name); err != nil {
				return err
			}
		}
		*t = IDLType{Defined: &def}
	default:
		*t = IDLType{Kind: obj.Kind, Fields: obj.Fields}
	}
	return nil
}

// ParseIDLFile reads an IDL JSON file.
func ParseIDLFile(filePath string) (*IDL, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read IDL file: %w", err)
	}

	return ParseIDL(data)
}

func ParseIDL(data []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, fmt.Errorf("failed to parse IDL JSON: %w", err)
	}

	return &idl, nil
}

// TypeDef returns the defined type called name.
func (i *IDL) TypeDef(name string) (*IDLTypeDef, bool) {
	for k := range i.Types {
		if i.Types[k].Name == name {
			return &i.Types[k], true
		}
	}
	return nil, false
}

// Instruction returns the instruction called name.
func (i *IDL) Instruction(name string) (*IDLInstruction, bool) {
	for k := range i.Instructions {
		if i.Instructions[k].Name == name {
			return &i.Instructions[k], true
		}
	}
	return nil, false
}
