package httpaction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intType1 int
type stringA string

type interfaceI interface {
	I() int
}

type doesI struct {
	i int
}

func (di *doesI) I() int { return di.i * 2 }

type doesIMore struct {
	doesI
}

func (d *doesIMore) More() {}

type query struct {
	Name  string   `param:"name"`
	Limit int      `param:"limit"`
	Tags  []string `param:"tag"`
}

var bestMatchTests = []struct {
	name       string
	want       reflect.Type
	candidates []any
	used       []bool
	expected   any
	found      bool
}{
	{
		"exact",
		reflect.TypeOf(intType1(0)),
		[]any{3, intType1(7)},
		nil,
		intType1(7),
		true,
	},
	{
		"exact beats assignable",
		reflect.TypeOf(stringA("")),
		[]any{"plain", stringA("typed")},
		nil,
		stringA("typed"),
		true,
	},
	{
		"no conversion between named types",
		reflect.TypeOf(intType1(0)),
		[]any{3, "x"},
		nil,
		nil,
		false,
	},
	{
		"interface picks most methods",
		reflect.TypeOf((*interfaceI)(nil)).Elem(),
		[]any{&doesI{i: 1}, &doesIMore{doesI{i: 2}}},
		nil,
		&doesIMore{doesI{i: 2}},
		true,
	},
	{
		"interface ties go to earliest",
		reflect.TypeOf((*interfaceI)(nil)).Elem(),
		[]any{"skip", &doesI{i: 1}, &doesI{i: 2}},
		nil,
		&doesI{i: 1},
		true,
	},
	{
		"empty interface takes the first candidate",
		reflect.TypeOf((*any)(nil)).Elem(),
		[]any{5, "x"},
		nil,
		5,
		true,
	},
	{
		"used candidates are skipped",
		reflect.TypeOf(0),
		[]any{5, 3},
		[]bool{true, false},
		3,
		true,
	},
	{
		"all matching candidates used",
		reflect.TypeOf(0),
		[]any{5, "x"},
		[]bool{true, false},
		nil,
		false,
	},
	{
		"interface skips used best match",
		reflect.TypeOf((*interfaceI)(nil)).Elem(),
		[]any{&doesIMore{doesI{i: 2}}, &doesI{i: 1}},
		[]bool{true},
		&doesI{i: 1},
		true,
	},
}

func TestBestMatch(t *testing.T) {
	for _, test := range bestMatchTests {
		t.Run(test.name, func(t *testing.T) {
			v, _, ok := bestMatch(test.want, test.candidates, test.used)
			require.Equal(t, test.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, test.want, v.Type())
			assert.Equal(t, test.expected, v.Interface())
		})
	}
}

func TestAGreaterBInts(t *testing.T) {
	assert.True(t, aGreaterBInts([]int{1, 0}, []int{0, 9}))
	assert.False(t, aGreaterBInts([]int{0, 9}, []int{1, 0}))
	assert.True(t, aGreaterBInts([]int{1, 2, 3}, []int{1, 2}))
	assert.False(t, aGreaterBInts([]int{1, 2}, []int{1, 2}))
}

func TestConverterPlanIsCached(t *testing.T) {
	f := NewTypeConverterFactory()
	fn := func(context.Context, query, *query, *http.Request, *ServerContext, int) {}
	plan := f.plan(reflect.TypeOf(fn))
	kinds := make([]paramKind, len(plan))
	for i, p := range plan {
		kinds[i] = p.kind
	}
	assert.Equal(t, []paramKind{contextParam, bindParam, bindParam, matchParam, matchParam, matchParam}, kinds)

	again := f.plan(reflect.TypeOf(fn))
	assert.Equal(t, reflect.ValueOf(plan).Pointer(), reflect.ValueOf(again).Pointer())
}

func TestConvertBindsRequestParameters(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?name=gopher&limit=5&tag=a&tag=b", nil)
	inv := NewRequestInvocation(nil, r, httptest.NewRecorder(), NewServerContext("t", nil), nil)
	conv := NewTypeConverterFactory().ParameterConverter(inv)

	var got query
	var gotPtr *query
	var gotParams *RequestParameters
	fn := reflect.ValueOf(func(q query, qp *query, p *RequestParameters, missing int) {
		got, gotPtr, gotParams = q, qp, p
		assert.Zero(t, missing)
	})
	args, err := conv.Convert(context.Background(), fn, nil, nil)
	require.NoError(t, err)
	fn.Call(args)

	want := query{Name: "gopher", Limit: 5, Tags: []string{"a", "b"}}
	assert.Equal(t, want, got)
	require.NotNil(t, gotPtr)
	assert.Equal(t, want, *gotPtr)
	assert.Same(t, inv.RequestParameters(), gotParams)
}

func TestConvertBindFailure(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/search?limit=lots", nil)
	inv := NewRequestInvocation(nil, r, httptest.NewRecorder(), NewServerContext("t", nil), nil)
	conv := NewTypeConverterFactory().ParameterConverter(inv)

	_, err := conv.Convert(context.Background(), reflect.ValueOf(func(query) {}), nil, nil)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestConvertWithoutRequestScope(t *testing.T) {
	conv := NewTypeConverterFactory().ParameterConverter(nil)
	fn := reflect.ValueOf(func(ctx context.Context, q query, s string, n int) {})
	args, err := conv.Convert(nil, fn, []any{nil, 3, "x"}, nil)
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, context.Background(), args[0].Interface())
	assert.Equal(t, query{}, args[1].Interface())
	assert.Equal(t, "x", args[2].Interface())
	assert.Equal(t, 3, args[3].Interface())
}

func TestBindable(t *testing.T) {
	assert.True(t, bindable(reflect.TypeOf(query{})))
	assert.True(t, bindable(reflect.TypeOf(&query{})))
	assert.False(t, bindable(reflect.TypeOf(1)))
	assert.False(t, bindable(reflect.TypeOf(&http.Request{})))
	assert.False(t, bindable(reflect.TypeOf(&ServerContext{})))
}

func TestConvertFillsSameTypedParametersInOrder(t *testing.T) {
	conv := NewTypeConverterFactory().ParameterConverter(nil)
	sc := NewServerContext("t", nil)
	fn := reflect.ValueOf(func(a, b int, s1 string, c int, s2 string, sc1, sc2 *ServerContext) {})
	args, err := conv.Convert(context.Background(), fn, []any{5, "x", 3, "y"}, []any{sc})
	require.NoError(t, err)
	got := make([]any, len(args))
	for i, a := range args {
		got[i] = a.Interface()
	}
	assert.Equal(t, []any{5, 3, "x", 0, "y", sc, sc}, got)
}
