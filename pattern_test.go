package tern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Cost model
// =============================================================================

func TestPattern_Cost_Constant(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, FromStatement(Triple(s, p, o)).Cost())
	assert.Equal(t, 0, FromStatement(Quad(s, p, o, g)).Cost())
}

func TestPattern_Cost_SingleUnboundPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pat  *Pattern
		want int
	}{
		{"subject", NewPattern(Var("s"), p, o), 2},
		{"predicate", NewPattern(s, Var("p"), o), 4},
		{"object", NewPattern(s, p, Var("o")), 8},
		{"graph variable", NewQuadPattern(s, p, o, Var("g")), 1},
		{"all three", NewPattern(Var("s"), Var("p"), Var("o")), 14},
		{"all four", NewQuadPattern(Var("s"), Var("p"), Var("o"), Var("g")), 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.pat.Cost())
		})
	}
}

// A constant graph term contributes nothing, so a fully unbound triple
// pattern restricted to the default graph still costs 14.
func TestPattern_Cost_DefaultGraphConstant(t *testing.T) {
	t.Parallel()

	pat := NewQuadPattern(Var("s"), Var("p"), Var("o"), DefaultGraph)
	assert.Equal(t, 14, pat.Cost())
}

func TestPattern_Cost_BoundVariableIsFree(t *testing.T) {
	t.Parallel()

	pat := NewPattern(BoundVariable("s", s), Var("p"), o)
	assert.Equal(t, 4, pat.Cost())
}

func TestPattern_Cost_Nested(t *testing.T) {
	t.Parallel()

	inner := NewPattern(Var("a"), Var("b"), Var("c")) // cost 14

	// Nested in subject position: 14*2, plus unbound object 8.
	pat := NewPattern(inner, p, Var("o"))
	assert.Equal(t, 36, pat.Cost())

	// Nested in object position multiplies by 4, not by the bare-object
	// weight 8.
	pat = NewPattern(Var("s"), p, inner)
	assert.Equal(t, 2+14*4, pat.Cost())
}

func TestPattern_SetCost(t *testing.T) {
	t.Parallel()

	pat := NewPattern(Var("s"), Var("p"), Var("o"))
	require.Equal(t, 14, pat.Cost())
	pat.SetCost(1)
	assert.Equal(t, 1, pat.Cost())
}

// =============================================================================
// Variable introspection
// =============================================================================

func TestPattern_Variables(t *testing.T) {
	t.Parallel()

	// ?x appears twice: once at the top level, once nested.
	inner := NewPattern(Var("x"), p, Var("y"))
	pat := NewPattern(Var("x"), p, inner)

	vars := pat.Variables()
	assert.Len(t, vars, 2)
	assert.Contains(t, vars, "x")
	assert.Contains(t, vars, "y")

	// Occurrence count exceeds the name count.
	assert.Equal(t, 3, pat.VariableCount())
}

func TestPattern_BoundPartition(t *testing.T) {
	t.Parallel()

	pat := NewPattern(BoundVariable("s", s), Var("o"), Var("p"))
	assert.Len(t, pat.BoundVariables(), 1)
	assert.Len(t, pat.UnboundVariables(), 2)
	assert.Equal(t, map[string]Term{"s": s}, pat.Bindings())
	assert.Equal(t, 1, pat.BindingCount())
}

func TestPattern_BoundUnboundPredicates(t *testing.T) {
	t.Parallel()

	constant := FromStatement(Triple(s, p, o))
	assert.False(t, constant.HasVariables())
	assert.True(t, constant.IsConstant())
	// A pattern with zero variables is neither bound nor unbound.
	assert.False(t, constant.Bound())
	assert.False(t, constant.Unbound())

	allBound := NewPattern(BoundVariable("s", s), BoundVariable("p", p), o)
	assert.True(t, allBound.HasVariables())
	assert.True(t, allBound.Bound())
	assert.False(t, allBound.Unbound())

	allUnbound := NewPattern(Var("s"), Var("p"), o)
	assert.False(t, allUnbound.Bound())
	assert.True(t, allUnbound.Unbound())

	mixed := NewPattern(BoundVariable("s", s), Var("p"), o)
	assert.False(t, mixed.Bound())
	assert.False(t, mixed.Unbound())
}

func TestPattern_NilPositionsBecomeVariables(t *testing.T) {
	t.Parallel()

	pat := NewPattern(nil, nil, nil)
	assert.True(t, pat.HasVariables())
	assert.Len(t, pat.Variables(), 3)
	// Generated names never collide.
	assert.Equal(t, 14, pat.Cost())
}

func TestPattern_VariableTerms_Deprecated(t *testing.T) {
	t.Parallel()

	pat := NewQuadPattern(Var("s"), p, Var("o"), Var("g"))
	// Deprecated but still functional; the notice must not alter the value.
	assert.Equal(t, []string{"subject", "object", "graph"}, pat.VariableTerms())
	assert.Equal(t, []string{"subject", "object", "graph"}, pat.VariableTerms())
}

// =============================================================================
// Values, Bind, Solution
// =============================================================================

func TestPattern_Values(t *testing.T) {
	t.Parallel()

	inner := NewPattern(Var("x"), p, Var("y"))
	pat := NewPattern(Var("x"), p, inner)

	st := Triple(s, p, Triple(o, p, NewLiteral("v")))

	// ?x occurs in the outer subject and the nested subject: one value per
	// occurrence, in pattern-definition order.
	assert.Equal(t, []Term{s, o}, pat.Values("x", st))
	assert.Equal(t, []Term{NewLiteral("v")}, pat.Values("y", st))
	assert.Empty(t, pat.Values("missing", st))
}

func TestPattern_Bind(t *testing.T) {
	t.Parallel()

	inner := NewPattern(Var("x"), p, Var("y"))
	pat := NewPattern(Var("x"), Var("q"), inner)

	full := NewSolution(map[string]Term{"x": s, "q": p, "y": o})
	bound := pat.Bind(full)
	assert.False(t, bound.HasVariables())
	assert.True(t, bound.Matches(Triple(s, p, Triple(s, p, o))))

	partial := pat.Bind(NewSolution(map[string]Term{"x": s}))
	assert.True(t, partial.HasVariables())
	assert.Len(t, partial.Variables(), 2)
}

func TestPattern_Solution(t *testing.T) {
	t.Parallel()

	pat := NewQuadPattern(Var("s"), p, Var("o"), Var("g"))
	sol := pat.Solution(Quad(s, p, NewLiteral("v"), g))

	got, ok := sol.Get("s")
	require.True(t, ok)
	assert.Equal(t, s, got)
	got, ok = sol.Get("o")
	require.True(t, ok)
	assert.Equal(t, NewLiteral("v"), got)
	got, ok = sol.Get("g")
	require.True(t, ok)
	assert.Equal(t, g, got)
}

func TestSolution_MergePrecedence(t *testing.T) {
	t.Parallel()

	a := NewSolution(map[string]Term{"x": s, "keep": o})
	b := NewSolution(map[string]Term{"x": p})

	merged := a.Merge(b)
	got, _ := merged.Get("x")
	assert.Equal(t, p, got, "other's value wins on collision")
	got, _ = merged.Get("keep")
	assert.Equal(t, o, got)

	// Operands are unchanged.
	got, _ = a.Get("x")
	assert.Equal(t, s, got)
}

// =============================================================================
// Matching & execution
// =============================================================================

func TestPattern_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pat  *Pattern
		st   Statement
		want bool
	}{
		{"all constants equal", FromStatement(Triple(s, p, o)), Triple(s, p, o), true},
		{"constant mismatch", FromStatement(Triple(s, p, o)), Triple(s, p, s), false},
		{"unbound variable matches", NewPattern(Var("s"), p, o), Triple(s, p, o), true},
		{"bound variable must equal", NewPattern(BoundVariable("s", o), p, o), Triple(s, p, o), false},
		{"no graph matches named", FromStatement(Triple(s, p, o)), Quad(s, p, o, g), true},
		{"default graph excludes named", NewQuadPattern(s, p, o, DefaultGraph), Quad(s, p, o, g), false},
		{"default graph matches unnamed", NewQuadPattern(s, p, o, DefaultGraph), Triple(s, p, o), true},
		{"named graph constraint", NewQuadPattern(s, p, o, g), Quad(s, p, o, g), true},
		{"named graph excludes unnamed", NewQuadPattern(s, p, o, g), Triple(s, p, o), false},
		{"nested matches quoted triple", NewPattern(NewPattern(Var("a"), p, o), p, o), Triple(Triple(s, p, o), p, o), true},
		{"nested rejects plain term", NewPattern(NewPattern(Var("a"), p, o), p, o), Triple(s, p, o), false},
		{"nested rejects literal object", NewPattern(s, p, NewPattern(Var("a"), p, o)), Triple(s, p, NewLiteral("x")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.pat.Matches(tt.st))
		})
	}
}

func TestPattern_Execute(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, NewLiteral("a"))))
	require.NoError(t, repo.Insert(Triple(o, p, NewLiteral("b"))))
	require.NoError(t, repo.Insert(Triple(s, RDFType, o)))

	pat := NewPattern(Var("who"), p, Var("what"))

	values := map[Term]Term{}
	for sol, err := range pat.Execute(repo) {
		require.NoError(t, err)
		who, ok := sol.Get("who")
		require.True(t, ok)
		what, ok := sol.Get("what")
		require.True(t, ok)
		values[who] = what
	}
	assert.Equal(t, map[Term]Term{
		s: NewLiteral("a"),
		o: NewLiteral("b"),
	}, values)
}

func TestPattern_Execute_PreSuppliedBindings(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, o)))

	pat := NewPattern(Var("who"), p, Var("what"))
	seed := NewSolution(map[string]Term{"extra": g})

	for sol, err := range pat.Execute(repo, seed) {
		require.NoError(t, err)
		extra, ok := sol.Get("extra")
		require.True(t, ok)
		assert.Equal(t, g, extra)
		who, _ := sol.Get("who")
		assert.Equal(t, s, who)
	}
}

// Re-ranging an Execute sequence re-reads the store, so mutations between
// iterations change the results.
func TestPattern_Execute_Restartable(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, o)))

	pat := NewPattern(Var("who"), p, o)
	seq := pat.Execute(repo)

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 1, count())

	require.NoError(t, repo.Insert(Triple(g, p, o)))
	assert.Equal(t, 2, count())
}

func TestPattern_Execute_NestedIncompatibleShape(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	require.NoError(t, repo.Insert(Triple(s, p, Triple(s, p, o))))
	require.NoError(t, repo.Insert(Triple(s, p, NewLiteral("plain"))))

	// The object must itself be a quoted triple; the literal-object
	// statement yields no solution.
	pat := NewPattern(Var("who"), p, NewPattern(Var("a"), Var("b"), Var("c")))
	n := 0
	for sol, err := range pat.Execute(repo) {
		require.NoError(t, err)
		a, ok := sol.Get("a")
		require.True(t, ok)
		assert.Equal(t, s, a)
		n++
	}
	assert.Equal(t, 1, n)
}

// For any pattern and a solution covering all its variables, the bound
// pattern has no variables left.
func TestPattern_BindFullCoverageProperty(t *testing.T) {
	t.Parallel()

	pats := []*Pattern{
		NewPattern(Var("a"), Var("b"), Var("c")),
		NewQuadPattern(Var("a"), p, Var("c"), Var("d")),
		NewPattern(NewPattern(Var("a"), Var("b"), Var("c")), p, Var("a")),
	}
	for _, pat := range pats {
		bindings := map[string]Term{}
		for name := range pat.Variables() {
			bindings[name] = s
		}
		assert.False(t, pat.Bind(NewSolution(bindings)).HasVariables())
	}
}
