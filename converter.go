package httpaction

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ParameterConverter produces the arguments for an action func from the
// raw params of an invocation and its convert params.
type ParameterConverter interface {
	Convert(ctx context.Context, fn reflect.Value, params []any, convertParams []any) ([]reflect.Value, error)
}

// ConverterFactory hands out a ParameterConverter per invocation.  inv is
// the invocation the converter will serve, which lets the converter reach
// request-scope objects; it may be nil.
type ConverterFactory interface {
	ParameterConverter(inv Invocation) ParameterConverter
}

// TypeConverterFactory is the default ConverterFactory.
//
// Its converters fill each action parameter by type.  Candidates are
// the raw params followed by the convert params.  Each raw param fills at
// most one action parameter, in order; convert params may fill several.
// An exact type match wins; otherwise for interface parameters the
// closest implementation is chosen (same package as the interface first,
// then the one with the most methods, then the earliest candidate); for
// other parameters the first assignable candidate is used.  A
// context.Context parameter gets the invocation context.  Struct (or
// pointer to struct) parameters that nothing matches are bound from the
// request parameters of the invocation, using "param" struct tags.
// Anything left over gets its zero value.
//
// The characterization of an action signature is done once per func type
// and cached.
type TypeConverterFactory struct {
	plans sync.Map // reflect.Type -> []paramPlan
}

func NewTypeConverterFactory() *TypeConverterFactory {
	return &TypeConverterFactory{}
}

func (f *TypeConverterFactory) ParameterConverter(inv Invocation) ParameterConverter {
	return &typeConverter{factory: f, inv: inv}
}

type paramKind int

const (
	matchParam paramKind = iota
	contextParam
	bindParam
)

type paramPlan struct {
	kind paramKind
	typ  reflect.Type
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var thisPkgPath = reflect.TypeOf(ServerContext{}).PkgPath()
var httpPkgPath = reflect.TypeOf(http.Request{}).PkgPath()

func (f *TypeConverterFactory) plan(t reflect.Type) []paramPlan {
	if p, ok := f.plans.Load(t); ok {
		return p.([]paramPlan)
	}
	plan := make([]paramPlan, t.NumIn())
	for i := range plan {
		in := t.In(i)
		plan[i] = paramPlan{kind: matchParam, typ: in}
		switch {
		case in == contextType:
			plan[i].kind = contextParam
		case bindable(in):
			plan[i].kind = bindParam
		}
	}
	p, _ := f.plans.LoadOrStore(t, plan)
	return p.([]paramPlan)
}

func bindable(t reflect.Type) bool {
	st := t
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return false
	}
	switch st.PkgPath() {
	case thisPkgPath, httpPkgPath:
		return false
	}
	return true
}

type typeConverter struct {
	factory *TypeConverterFactory
	inv     Invocation
}

// parameterSource is implemented by invocations that carry request
// parameters (RequestInvocation).
type parameterSource interface {
	RequestParameters() *RequestParameters
}

func (c *typeConverter) Convert(ctx context.Context, fn reflect.Value, params []any, convertParams []any) ([]reflect.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	candidates := make([]any, 0, len(params)+len(convertParams)+1)
	for _, p := range params {
		if p != nil {
			candidates = append(candidates, p)
		}
	}
	// raw params fill at most one parameter each; request-scope values
	// can be asked for any number of times
	consumable := len(candidates)
	for _, p := range convertParams {
		if p != nil {
			candidates = append(candidates, p)
		}
	}
	src, hasSource := c.inv.(parameterSource)
	if hasSource {
		candidates = append(candidates, src.RequestParameters())
	}
	used := make([]bool, len(candidates))

	plan := c.factory.plan(fn.Type())
	args := make([]reflect.Value, len(plan))
	for i, p := range plan {
		if p.kind == contextParam {
			args[i] = reflect.ValueOf(ctx)
			continue
		}
		if v, idx, ok := bestMatch(p.typ, candidates, used); ok {
			if idx < consumable {
				used[idx] = true
			}
			args[i] = v
			continue
		}
		if p.kind == bindParam {
			if hasSource {
				v, err := bindParameters(p.typ, src.RequestParameters())
				if err != nil {
					return nil, fmt.Errorf("%w: parameter %d (%s): %v", ErrConversion, i, p.typ, err)
				}
				args[i] = v
				continue
			}
		}
		args[i] = reflect.Zero(p.typ)
	}
	return args, nil
}

// bestMatch picks the candidate for a parameter of type want, skipping
// used candidates.  It returns the converted value and the index of the
// candidate.
func bestMatch(want reflect.Type, candidates []any, used []bool) (reflect.Value, int, bool) {
	available := func(i int) bool { return i >= len(used) || !used[i] }
	for i, c := range candidates {
		if available(i) && reflect.TypeOf(c) == want {
			return reflect.ValueOf(c), i, true
		}
	}
	if want.Kind() != reflect.Interface {
		for i, c := range candidates {
			if available(i) && reflect.TypeOf(c).AssignableTo(want) {
				return reflect.ValueOf(c).Convert(want), i, true
			}
		}
		return reflect.Value{}, -1, false
	}
	// What is the best match?
	// (*) Same package path for the candidate and the interface
	// (*) Highest method count
	// (*) Earliest candidate
	var best struct {
		found bool
		index int
		score []int
	}
	for i, c := range candidates {
		if !available(i) {
			continue
		}
		ct := reflect.TypeOf(c)
		if !ct.Implements(want) {
			continue
		}
		samePathScore := 0
		if indirect(ct).PkgPath() == want.PkgPath() {
			samePathScore = 1
		}
		s := []int{samePathScore, ct.NumMethod(), -i}
		if !best.found || aGreaterBInts(s, best.score) {
			best.found = true
			best.index = i
			best.score = s
		}
	}
	if !best.found {
		return reflect.Value{}, -1, false
	}
	return reflect.ValueOf(candidates[best.index]).Convert(want), best.index, true
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func aGreaterBInts(a []int, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] > b[i] {
			return true
		}
		if a[i] < b[i] {
			return false
		}
	}
	return len(a) > len(b)
}

func bindParameters(t reflect.Type, p *RequestParameters) (reflect.Value, error) {
	ptr := t.Kind() == reflect.Ptr
	st := t
	if ptr {
		st = t.Elem()
	}
	target := reflect.New(st)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "param",
		Result:           target.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(p.decodeInput()); err != nil {
		return reflect.Value{}, err
	}
	if ptr {
		return target, nil
	}
	return target.Elem(), nil
}
