package hmmlib

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFromStates(t *testing.T) {

	require.Nil(t, FromStates([]int{NullState, NullState}))

	c := FromStates([]int{NullState, 2, NullState, 0})
	require.Equal(t, Constraints{1: 2, 3: 0}, c)

	st, ok := c.Known(1)
	require.True(t, ok)
	require.Equal(t, 2, st)
	_, ok = c.Known(0)
	require.False(t, ok)

	require.True(t, c.Allows(0, 1))
	require.True(t, c.Allows(1, 2))
	require.False(t, c.Allows(1, 0))

	var none Constraints
	require.True(t, none.Allows(5, 3))
}

func TestConstrainedPosteriors(t *testing.T) {

	rng := rand.New(rand.NewSource(5))

	for _, known := range []Constraints{
		{0: 1},
		{3: 2},
		{5: 0},
		{1: 0, 2: 2, 4: 1},
		{0: 2, 1: 2, 2: 2, 3: 2, 4: 2, 5: 2},
	} {
		loginit, trans, logemis := randomInputs(rng, 6, 3)

		post, err := Posteriors(loginit, trans, logemis, known)
		require.NoError(t, err)
		require.NoError(t, post.Verify(1e-9))

		gamma, eps, total := bruteForce(loginit, trans, logemis, known)
		require.InDelta(t, math.Log(total), post.LogLikelihood, 1e-9)
		g := ExpDense(post.LogGamma)
		requireDenseInDelta(t, gamma, g, 1e-9, "gamma")
		for tt := range eps {
			requireDenseInDelta(t, eps[tt], ExpDense(post.LogEpsilon[tt]), 1e-9, "epsilon")
		}

		// A known state has posterior one.
		for tt, st := range known {
			for k := 0; k < 3; k++ {
				if k == st {
					require.InDelta(t, 1, g.At(tt, k), 1e-12)
				} else {
					require.Equal(t, 0.0, g.At(tt, k))
				}
			}
		}
	}
}

func TestConstraintExcludesAllMass(t *testing.T) {

	// State 0 can never be reached from anywhere after the start.
	loginit := LogVec([]float64{0, 1})
	trans := NewStationary(LogMatrix([][]float64{
		{0.5, 0.5},
		{0, 1},
	}), 4)
	logemis := LogMatrix([][]float64{
		{0.5, 0.5},
		{0.5, 0.5},
		{0.5, 0.5},
		{0.5, 0.5},
	})

	alpha, err := LogAlpha(loginit, trans, logemis, Constraints{2: 0})
	require.NoError(t, err)
	for tt := 2; tt < 4; tt++ {
		for st := 0; st < 2; st++ {
			require.True(t, math.IsInf(alpha.At(tt, st), -1))
		}
	}

	post, err := Posteriors(loginit, trans, logemis, Constraints{2: 0})
	require.NoError(t, err)
	require.True(t, math.IsInf(post.LogLikelihood, -1))
}

func TestConstraintBeta(t *testing.T) {

	ref := loadReference(t)
	loginit, trans, logemis := ref.inputs()

	// Beta at the step before a known state only sums over that state.
	beta, err := LogBeta(trans, logemis, Constraints{11: 1})
	require.NoError(t, err)
	for st := 0; st < 3; st++ {
		want := math.Log(ref.Trans[st][1] * ref.Emission[11][1])
		require.InDelta(t, want, beta.At(10, st), 1e-12)
		require.Equal(t, 0.0, beta.At(11, st))
	}

	// Constraints that mention every time point give a single path.
	path := []int{0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 0, 1}
	post, err := Posteriors(loginit, trans, logemis, FromStates(path))
	require.NoError(t, err)
	want := loginit[path[0]] + logemis.At(0, path[0])
	for tt := 1; tt < len(path); tt++ {
		want += trans[tt-1].At(path[tt-1], path[tt]) + logemis.At(tt, path[tt])
	}
	require.InDelta(t, want, post.LogLikelihood, 1e-10)
	for tt, e := range post.LogEpsilon {
		require.InDelta(t, 1, math.Exp(e.At(path[tt], path[tt+1])), 1e-10)
	}
}

func TestShapeErrors(t *testing.T) {

	ref := loadReference(t)
	loginit, trans, logemis := ref.inputs()

	withBad := func(m *mat.Dense) StepTransitions {
		st := make(StepTransitions, len(trans))
		copy(st, trans)
		st[4] = m
		return st
	}

	for _, tc := range []struct {
		name    string
		loginit []float64
		trans   Transitions
		logemis mat.Matrix
		known   Constraints
		nerr    int
	}{
		{"short init", loginit[:2], trans, logemis, nil, 1},
		{"no transitions", loginit, nil, logemis, nil, 1},
		{"too few transitions", loginit, trans[:5], logemis, nil, 1},
		{"too many transitions", loginit, append(StepTransitions{trans[0], trans[0]}, trans...), logemis, nil, 1},
		{"not square", loginit, withBad(mat.NewDense(3, 2, nil)), logemis, nil, 1},
		{"wrong states", loginit, withBad(mat.NewDense(2, 2, nil)), logemis, nil, 1},
		{"constraint time", loginit, trans, logemis, Constraints{12: 0}, 1},
		{"constraint state", loginit, trans, logemis, Constraints{3: 3}, 1},
		{"several", loginit[:1], trans[:3], logemis, Constraints{-1: 7}, 4},
		{"nil step", loginit, withBad(nil), logemis, nil, 1},
		{"nil stationary", loginit, &Stationary{Steps: 11}, logemis, nil, 11},
	} {
		_, err := Posteriors(tc.loginit, tc.trans, tc.logemis, tc.known)
		require.Error(t, err, tc.name)
		require.ErrorIs(t, err, ErrShape, tc.name)

		var merr *multierror.Error
		require.True(t, errors.As(err, &merr), tc.name)
		require.Len(t, merr.Errors, tc.nerr, "%s: %v", tc.name, err)

		_, err = LogAlpha(tc.loginit, tc.trans, tc.logemis, tc.known)
		require.ErrorIs(t, err, ErrShape, tc.name)
	}

	_, err := Posteriors(loginit, trans, nil, nil)
	require.ErrorIs(t, err, ErrShape)

	// The backward pass does not look at the initial vector.
	_, err = LogBeta(trans, logemis, nil)
	require.NoError(t, err)
}
