package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyPrimitives(t *testing.T) {
	sub, err := Unify(Int, Int, Substitution{}, "-")
	require.NoError(t, err)
	assert.Empty(t, sub)

	_, err = Unify(Int, Bool, Substitution{}, "-")
	require.Error(t, err)
	var uerr *UnifyError
	require.ErrorAs(t, err, &uerr)
}

func TestUnifyBindsVar(t *testing.T) {
	v := NewTypeVar()
	sub, err := Unify(v, Int, Substitution{}, "-")
	require.NoError(t, err)
	require.Equal(t, Int, ApplySubstitution(sub, v))
}

func TestOccursCheck(t *testing.T) {
	v := NewTypeVar()
	listOfV := &List{Element: v}
	_, err := Unify(v, listOfV, Substitution{}, "-")
	require.Error(t, err)
	var oerr *OccursError
	require.ErrorAs(t, err, &oerr)
}

func TestRecordFieldsUnifyAsSets(t *testing.T) {
	a := &Record{Fields: map[string]Type{"x": Int, "y": String}}
	b := &Record{Fields: map[string]Type{"x": Int, "y": String}}
	sub, err := Unify(a, b, Substitution{}, "-")
	require.NoError(t, err)
	assert.NotNil(t, sub)

	c := &Record{Fields: map[string]Type{"x": Int}}
	_, err = Unify(a, c, Substitution{}, "-")
	require.Error(t, err)
	var ferr *FieldMismatchError
	require.ErrorAs(t, err, &ferr)
}

func TestRecordFieldOrdering(t *testing.T) {
	labels := []string{"10", "2", "a", "b", "1"}
	r := &Record{Fields: map[string]Type{}}
	for _, l := range labels {
		r.Fields[l] = Int
	}
	sorted := r.SortedLabels()
	require.Equal(t, []string{"1", "2", "10", "a", "b"}, sorted)
}

func TestGeneralizeDoesNotQuantifyEnvVars(t *testing.T) {
	env := NewEnv()
	shared := NewTypeVar()
	env = env.Extend("x", Monomorphic(shared))

	fn := &Fn{Param: shared, Result: NewTypeVar()}
	scheme := Generalize(env, fn)

	// shared must not be quantified (it's free in the env)
	for _, v := range scheme.Vars {
		require.NotEqual(t, shared.ID, v.ID)
	}
	require.Len(t, scheme.Vars, 1)
}

func TestInstantiateFreshensVars(t *testing.T) {
	v := NewTypeVar()
	scheme := &Forall{Vars: []*TVar{v}, Body: &Fn{Param: v, Result: v}}
	t1 := scheme.Instantiate()
	t2 := scheme.Instantiate()
	require.False(t, t1.Equals(t2) && t1 == t2)
	fn1 := t1.(*Fn)
	require.True(t, fn1.Param.Equals(fn1.Result))
}

func TestOverloadResolveUniqueMatch(t *testing.T) {
	env := NewOverloadEnv()
	env.Declare("zero")
	require.NoError(t, env.AddInstance("zero", &OverloadInstance{
		Name: "zero", Type: &Forall{Body: &Fn{Param: Int, Result: Int}}, CoreName: "zero_int",
	}))
	require.NoError(t, env.AddInstance("zero", &OverloadInstance{
		Name: "zero", Type: &Forall{Body: &Fn{Param: Real, Result: Real}}, CoreName: "zero_real",
	}))

	inst, _, err := env.Resolve("zero", Int, Substitution{}, "-")
	require.NoError(t, err)
	require.Equal(t, "zero_int", inst.CoreName)

	_, _, err = env.Resolve("zero", String, Substitution{}, "-")
	require.Error(t, err)
	var noMatch *OverloadNoMatchError
	require.ErrorAs(t, err, &noMatch)
}
