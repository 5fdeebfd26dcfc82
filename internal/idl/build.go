package idl

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/errors"
	"github.com/lugondev/go-soflotto/internal/lottery"
	"github.com/lugondev/go-soflotto/internal/program"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/state"
	"github.com/lugondev/go-soflotto/pkg/discriminator"
	"github.com/lugondev/go-soflotto/pkg/utils"
)

const (
	programName = "sof_token"
	idlSpec     = "0.1.0"
)

var pubkeyType = reflect.TypeOf(solana.PublicKey{})

// Build describes the instruction table of registry as deployed at book.
// Accounts pinned to a derived or program address carry that address.
func Build(book *address.Book, registry *program.Registry, version string) (*IDL, error) {
	out := &IDL{
		Address: book.ProgramID().String(),
		Metadata: IDLMetadata{
			Name:        programName,
			Version:     version,
			Spec:        idlSpec,
			Description: "SOF token with transaction tax, dual liquidity pools and a holder lottery",
		},
	}

	for _, def := range registry.All() {
		ix, err := instruction(book, def)
		if err != nil {
			return nil, err
		}
		out.Instructions = append(out.Instructions, ix)
	}

	for _, rec := range []state.Record{
		&state.GlobalState{},
		&state.UserState{},
		&state.LiquidityPool{},
		&state.AdminAccessState{},
		&state.DrawResult{},
	} {
		name := rec.AccountName()
		td, err := typeDef(name, rec)
		if err != nil {
			return nil, err
		}
		out.Accounts = append(out.Accounts, IDLAccountDef{Name: name, Discriminator: bytesOf(discriminator.Account(name))})
		out.Types = append(out.Types, td)
	}

	names := receipt.EventNames()
	sort.Strings(names)
	for _, name := range names {
		ev, _ := receipt.NewEvent(name)
		td, err := typeDef(name, ev)
		if err != nil {
			return nil, err
		}
		out.Events = append(out.Events, IDLEvent{Name: name, Discriminator: bytesOf(discriminator.Event(name))})
		out.Types = append(out.Types, td)
	}

	for _, e := range errors.All() {
		out.Errors = append(out.Errors, IDLError{
			Code: int(e.Number()),
			Name: utils.ToPascalCase(strings.ToLower(e.Code)),
			Msg:  e.Message,
		})
	}

	out.Constants = constants()
	return out, nil
}

func instruction(book *address.Book, def *program.Definition) (IDLInstruction, error) {
	ix := IDLInstruction{
		Name:          utils.ToSnakeCase(def.Name),
		Discriminator: bytesOf(def.Discriminator),
		Accounts:      make([]IDLAccountMeta, 0, len(def.Accounts)+1),
		Args:          make([]IDLField, 0, len(def.Args)),
	}
	for _, a := range def.Accounts {
		meta := IDLAccountMeta{
			Name:     utils.ToSnakeCase(a.Name),
			Writable: a.Writable,
			Signer:   a.Signer,
		}
		if a.Address != nil {
			meta.Address = a.Address(book).String()
		}
		ix.Accounts = append(ix.Accounts, meta)
	}
	if def.Has(program.AcceptsAdminState) {
		ix.Accounts = append(ix.Accounts, IDLAccountMeta{
			Name:     "admin_state",
			Optional: true,
			Address:  book.Admin.Address.String(),
			Docs:     []string{"Lets a registered admin act in place of the authority."},
		})
	}
	for _, arg := range def.Args {
		t, err := parseArgType(arg.Type)
		if err != nil {
			return ix, fmt.Errorf("instruction %s arg %s: %w", def.Name, arg.Name, err)
		}
		ix.Args = append(ix.Args, IDLField{Name: utils.ToSnakeCase(arg.Name), Type: t})
	}
	return ix, nil
}

// parseArgType reads the type notation of the instruction table: primitives
// and "[T; N]" arrays.
func parseArgType(s string) (IDLType, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		elem, n, ok := strings.Cut(s[1:len(s)-1], ";")
		if !ok {
			return IDLType{}, fmt.Errorf("malformed array type %q", s)
		}
		size, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return IDLType{}, fmt.Errorf("malformed array length in %q", s)
		}
		inner, err := parseArgType(elem)
		if err != nil {
			return IDLType{}, err
		}
		return IDLType{Array: &IDLArrayType{Type: inner, Len: size}}, nil
	}
	switch s {
	case "bool", "string", "u8", "u16", "u32", "u64", "i64":
		return primitive(s), nil
	case "publicKey", "pubkey":
		return primitive("pubkey"), nil
	}
	return IDLType{}, fmt.Errorf("unsupported type %q", s)
}

// typeDef reflects the borsh layout of v, a pointer to a struct.
func typeDef(name string, v any) (IDLTypeDef, error) {
	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return IDLTypeDef{}, fmt.Errorf("%s is not a struct", name)
	}
	fields := make([]IDLField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		t, err := goType(f.Type)
		if err != nil {
			return IDLTypeDef{}, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		fields = append(fields, IDLField{Name: utils.ToSnakeCase(f.Name), Type: t})
	}
	return IDLTypeDef{Name: name, Type: IDLType{Kind: "struct", Fields: fields}}, nil
}

func goType(t reflect.Type) (IDLType, error) {
	if t == pubkeyType {
		return primitive("pubkey"), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return primitive("bool"), nil
	case reflect.String:
		return primitive("string"), nil
	case reflect.Uint8:
		return primitive("u8"), nil
	case reflect.Uint16:
		return primitive("u16"), nil
	case reflect.Uint32:
		return primitive("u32"), nil
	case reflect.Uint64:
		return primitive("u64"), nil
	case reflect.Int64:
		return primitive("i64"), nil
	case reflect.Array:
		inner, err := goType(t.Elem())
		if err != nil {
			return IDLType{}, err
		}
		return IDLType{Array: &IDLArrayType{Type: inner, Len: t.Len()}}, nil
	}
	return IDLType{}, fmt.Errorf("unsupported field type %s", t)
}

func constants() []IDLConstant {
	out := []IDLConstant{
		{Name: "MAX_ADMINS", Type: primitive("u8"), Value: strconv.Itoa(state.MaxAdmins)},
		{Name: "RUNNER_UP_COUNT", Type: primitive("u8"), Value: strconv.Itoa(state.RunnerUpCount)},
	}
	for _, tier := range lottery.Tiers {
		out = append(out,
			IDLConstant{
				Name:  fmt.Sprintf("TIER_%d_MIN_USD", tier.ID),
				Type:  primitive("string"),
				Value: tier.MinUSD.String(),
			},
			IDLConstant{
				Name:  fmt.Sprintf("TIER_%d_ENTRIES", tier.ID),
				Type:  primitive("u64"),
				Value: strconv.FormatUint(tier.Entries, 10),
			},
		)
	}
	return out
}

func bytesOf(d discriminator.Discriminator) []int {
	out := make([]int, len(d))
	for i, b := range d {
		out[i] = int(b)
	}
	return out
}
