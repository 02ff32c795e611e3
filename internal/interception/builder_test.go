package interception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

type stubInterceptor struct {
	id models.ClassID
}

func (s stubInterceptor) ClassID() models.ClassID                 { return s.id }
func (s stubInterceptor) Name() string                            { return s.id.Name() }
func (s stubInterceptor) IsEligible(models.InterceptionKind) bool { return true }
func (s stubInterceptor) Hierarchy() []models.ClassID             { return []models.ClassID{s.id} }

func interceptor(name string) models.InterceptorMetadata {
	return stubInterceptor{id: models.ClassID("app." + name)}
}

func ids(list []models.InterceptorMetadata) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ClassID().Name()
	}
	return out
}

var (
	target    = models.ClassID("app.Orders")
	place     = models.MethodRef{Class: target, Name: "Place"}
	cancelRef = models.MethodRef{Class: target, Name: "Cancel"}
)

func TestBuilder_With(t *testing.T) {
	a, b, c := interceptor("A"), interceptor("B"), interceptor("C")

	tests := []struct {
		name     string
		build    func(t *testing.T, b *Builder)
		kind     models.InterceptionKind
		method   *models.MethodRef
		expected []string
	}{
		{
			name: "global appends keep insertion order",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.Intercept(models.PostConstruct)
				require.NoError(t, err)
				require.NoError(t, d.With(a, b))
				require.NoError(t, d.With(c))
			},
			kind:     models.PostConstruct,
			expected: []string{"A", "B", "C"},
		},
		{
			name: "with keeps duplicates",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.Intercept(models.PreDestroy)
				require.NoError(t, err)
				require.NoError(t, d.With(a, a))
			},
			kind:     models.PreDestroy,
			expected: []string{"A", "A"},
		},
		{
			name: "method list follows global list",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.Intercept(models.AroundInvoke)
				require.NoError(t, err)
				require.NoError(t, d.With(a))
				md, err := bl.InterceptMethod(models.AroundInvoke, place)
				require.NoError(t, err)
				require.NoError(t, md.With(b))
			},
			kind:     models.AroundInvoke,
			method:   &place,
			expected: []string{"A", "B"},
		},
		{
			name: "other methods only see global interceptors",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.Intercept(models.AroundInvoke)
				require.NoError(t, err)
				require.NoError(t, d.With(a))
				md, err := bl.InterceptMethod(models.AroundInvoke, place)
				require.NoError(t, err)
				require.NoError(t, md.With(b))
			},
			kind:     models.AroundInvoke,
			method:   &cancelRef,
			expected: []string{"A"},
		},
		{
			name: "ignoring global interceptors drops the class-wide list",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.Intercept(models.AroundInvoke)
				require.NoError(t, err)
				require.NoError(t, d.With(a))
				require.NoError(t, bl.AddMethodIgnoringGlobalInterceptors(place))
				md, err := bl.InterceptMethod(models.AroundInvoke, place)
				require.NoError(t, err)
				require.NoError(t, md.With(c))
			},
			kind:     models.AroundInvoke,
			method:   &place,
			expected: []string{"C"},
		},
		{
			name: "intercept all targets every kind",
			build: func(t *testing.T, bl *Builder) {
				d, err := bl.InterceptAll()
				require.NoError(t, err)
				require.NoError(t, d.With(a))
			},
			kind:     models.PostActivate,
			expected: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bl := NewBuilder(target)
			tt.build(t, bl)
			model, err := bl.Build()
			require.NoError(t, err)

			got, err := model.Interceptors(tt.kind, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestBuilder_WithNew(t *testing.T) {
	a, b, c := interceptor("A"), interceptor("B"), interceptor("C")

	t.Run("global list deduplicates by class", func(t *testing.T) {
		bl := NewBuilder(target)
		d, err := bl.Intercept(models.PostConstruct)
		require.NoError(t, err)
		require.NoError(t, d.WithNew(a, b))
		require.NoError(t, d.WithNew(b, c))

		model, err := bl.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, ids(model.GlobalInterceptors(models.PostConstruct)))
	})

	t.Run("method list skips interceptors already global", func(t *testing.T) {
		bl := NewBuilder(target)
		d, err := bl.Intercept(models.AroundInvoke)
		require.NoError(t, err)
		require.NoError(t, d.With(a))

		md, err := bl.InterceptMethod(models.AroundInvoke, place)
		require.NoError(t, err)
		require.NoError(t, md.WithNew(a, b))
		require.NoError(t, md.WithNew(b))

		model, err := bl.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, ids(model.MethodInterceptors(models.AroundInvoke, place)))

		got, err := model.Interceptors(models.AroundInvoke, &place)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, ids(got))
	})

	t.Run("different instances of one class are the same interceptor", func(t *testing.T) {
		bl := NewBuilder(target)
		d, err := bl.Intercept(models.AroundConstruct)
		require.NoError(t, err)
		require.NoError(t, d.WithNew(stubInterceptor{id: "app.A"}))
		require.NoError(t, d.WithNew(stubInterceptor{id: "app.A"}))

		model, err := bl.Build()
		require.NoError(t, err)
		assert.Len(t, model.ConstructorInvocationInterceptors(), 1)
	})
}

func TestBuilder_ExternalNonConstructorFlag(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.InterceptionKind
		expected bool
	}{
		{name: "around construct does not set flag", kind: models.AroundConstruct, expected: false},
		{name: "post construct sets flag", kind: models.PostConstruct, expected: true},
		{name: "around invoke sets flag", kind: models.AroundInvoke, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bl := NewBuilder(target)
			d, err := bl.Intercept(tt.kind)
			require.NoError(t, err)
			require.NoError(t, d.With(interceptor("A")))

			model, err := bl.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, model.HasExternalNonConstructorInterceptors())
		})
	}

	t.Run("empty append still sets flag", func(t *testing.T) {
		bl := NewBuilder(target)
		d, err := bl.Intercept(models.PreDestroy)
		require.NoError(t, err)
		require.NoError(t, d.With())

		model, err := bl.Build()
		require.NoError(t, err)
		assert.True(t, model.HasExternalNonConstructorInterceptors())
		assert.Empty(t, model.AllInterceptors())
	})
}

func TestBuilder_AllInterceptorsUnion(t *testing.T) {
	a, b := interceptor("A"), interceptor("B")

	bl := NewBuilder(target)
	d, err := bl.Intercept(models.PostConstruct)
	require.NoError(t, err)
	require.NoError(t, d.With(b, a))
	md, err := bl.InterceptMethod(models.AroundTimeout, place)
	require.NoError(t, err)
	require.NoError(t, md.With(a))

	model, err := bl.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, ids(model.AllInterceptors()))
	assert.False(t, model.IsEmpty())
}

func TestBuilder_IllegalKinds(t *testing.T) {
	t.Run("lifecycle kind bound to a method", func(t *testing.T) {
		_, err := NewBuilder(target).InterceptMethod(models.PostConstruct, place)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.IllegalArgumentErrorCode))
	})

	t.Run("lifecycle kind in a method kind list", func(t *testing.T) {
		_, err := NewBuilder(target).InterceptMethodKinds(place, models.AroundInvoke, models.PreDestroy)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	})

	t.Run("invocation kinds in a method kind list", func(t *testing.T) {
		bl := NewBuilder(target)
		d, err := bl.InterceptMethodKinds(place, models.AroundInvoke, models.AroundTimeout)
		require.NoError(t, err)
		require.NoError(t, d.With(interceptor("A")))

		model, err := bl.Build()
		require.NoError(t, err)
		assert.Len(t, model.MethodInterceptors(models.AroundInvoke, place), 1)
		assert.Len(t, model.MethodInterceptors(models.AroundTimeout, place), 1)
	})
}

func TestBuilder_Reuse(t *testing.T) {
	bl := NewBuilder(target)
	d, err := bl.Intercept(models.AroundInvoke)
	require.NoError(t, err)

	_, err = bl.Build()
	require.NoError(t, err)

	calls := map[string]func() error{
		"Build": func() error { _, err := bl.Build(); return err },
		"Intercept": func() error {
			_, err := bl.Intercept(models.PostConstruct)
			return err
		},
		"InterceptAll": func() error { _, err := bl.InterceptAll(); return err },
		"InterceptMethod": func() error {
			_, err := bl.InterceptMethod(models.AroundInvoke, place)
			return err
		},
		"InterceptMethodKinds": func() error {
			_, err := bl.InterceptMethodKinds(place, models.AroundInvoke)
			return err
		},
		"SetHasTargetClassInterceptors":       func() error { return bl.SetHasTargetClassInterceptors(true) },
		"AddMethodIgnoringGlobalInterceptors": func() error { return bl.AddMethodIgnoringGlobalInterceptors(place) },
		"With":                                func() error { return d.With(interceptor("A")) },
		"WithNew":                             func() error { return d.WithNew(interceptor("A")) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.IllegalStateErrorCode))
		})
	}
}

func TestBuilder_ModelIsDetached(t *testing.T) {
	bl := NewBuilder(target)
	d, err := bl.Intercept(models.PostConstruct)
	require.NoError(t, err)
	require.NoError(t, d.With(interceptor("A")))

	model, err := bl.Build()
	require.NoError(t, err)

	list := model.GlobalInterceptors(models.PostConstruct)
	list[0] = interceptor("Z")
	assert.Equal(t, []string{"A"}, ids(model.GlobalInterceptors(models.PostConstruct)))
}

func TestBuilder_WithNewNeverDuplicates(t *testing.T) {
	names := []string{"A", "B", "C", "D"}

	rapid.Check(t, func(t *rapid.T) {
		batches := rapid.SliceOfN(rapid.SliceOf(rapid.SampledFrom(names)), 1, 5).Draw(t, "batches")
		useMethod := rapid.Bool().Draw(t, "useMethod")

		bl := NewBuilder(target)
		var d *Descriptor
		var err error
		if useMethod {
			d, err = bl.InterceptMethod(models.AroundInvoke, place)
		} else {
			d, err = bl.Intercept(models.AroundInvoke)
		}
		if err != nil {
			t.Fatalf("descriptor: %v", err)
		}

		var firstSeen []string
		seen := make(map[string]bool)
		for _, batch := range batches {
			// dedup inside one batch is not performed, so draw distinct batches
			distinct := make([]models.InterceptorMetadata, 0, len(batch))
			local := make(map[string]bool)
			for _, name := range batch {
				if local[name] {
					continue
				}
				local[name] = true
				distinct = append(distinct, interceptor(name))
				if !seen[name] {
					seen[name] = true
					firstSeen = append(firstSeen, name)
				}
			}
			if err := d.WithNew(distinct...); err != nil {
				t.Fatalf("with new: %v", err)
			}
		}

		model, err := bl.Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		got, err := model.Interceptors(models.AroundInvoke, &place)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if gotIDs := ids(got); !equalStrings(gotIDs, firstSeen) {
			t.Fatalf("expected %v, got %v", firstSeen, gotIDs)
		}
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
