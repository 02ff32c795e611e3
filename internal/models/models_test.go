package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptionKind(t *testing.T) {
	for _, kind := range AllKinds {
		t.Run(kind.String(), func(t *testing.T) {
			assert.True(t, kind.IsValid())

			parsed, err := ParseInterceptionKind(kind.String())
			require.NoError(t, err)
			assert.Equal(t, kind, parsed)

			fromMarker, ok := KindForMarker(kind.Marker())
			require.True(t, ok)
			assert.Equal(t, kind, fromMarker)
		})
	}

	assert.False(t, AroundInvoke.IsLifecycle())
	assert.False(t, AroundTimeout.IsLifecycle())
	assert.True(t, PostConstruct.IsLifecycle())
	assert.False(t, InterceptionKind(42).IsValid())

	_, err := ParseInterceptionKind("AROUND_EVERYTHING")
	assert.Error(t, err)
}

func TestClassID_Name(t *testing.T) {
	assert.Equal(t, ClassID("example.com/shop/orders.Orders"), NewClassID("example.com/shop/orders", "Orders"))
	assert.Equal(t, "Orders", NewClassID("example.com/shop/orders", "Orders").Name())
	assert.Equal(t, "Orders", NewClassID("", "Orders").Name())
}

func TestAnnotation_EqualIgnoring(t *testing.T) {
	a := NewAnnotation("Transactional", map[string]string{"mode": "required", "comment": "x"})
	b := NewAnnotation("Transactional", map[string]string{"mode": "required", "comment": "y"})

	assert.False(t, a.Equal(b))
	assert.True(t, a.EqualIgnoring(b, map[string]bool{"comment": true}))
	assert.False(t, a.Equal(NewAnnotation("Audited", nil)))
	assert.Equal(t, "Transactional(comment=x, mode=required)", a.String())
	assert.Equal(t, "Audited", NewAnnotation("Audited", nil).String())
}

func TestBindingSet(t *testing.T) {
	set := NewBindingSet()
	assert.False(t, set.Put(NewAnnotation("Logged", nil)))
	assert.False(t, set.Put(NewAnnotation("Transactional", map[string]string{"mode": "a"})))
	assert.True(t, set.Put(NewAnnotation("Logged", map[string]string{"level": "debug"})))

	require.Equal(t, 2, set.Len())
	values := set.Values()
	assert.Equal(t, "Logged", values[0].Type)
	assert.Equal(t, "debug", values[0].Members["level"])

	clone := set.Clone()
	clone.Put(NewAnnotation("Audited", nil))
	assert.False(t, set.Has("Audited"))
	assert.True(t, clone.Has("Audited"))
}

func TestClassMetadata_EffectiveMethods(t *testing.T) {
	base := &ClassMetadata{
		ID:   "shop.Base",
		Name: "Base",
		Methods: []*MethodMetadata{
			{Name: "Place", Declaring: "shop.Base"},
			{Name: "Audit", Declaring: "shop.Base", InterceptorKinds: []InterceptionKind{AroundInvoke}},
			{Name: "Helper", Declaring: "shop.Base", Static: true},
		},
	}
	orders := &ClassMetadata{
		ID:         "shop.Orders",
		Name:       "Orders",
		Superclass: base,
		Methods: []*MethodMetadata{
			{Name: "Place", Declaring: "shop.Orders"},
			{Name: "Cancel", Declaring: "shop.Orders"},
		},
	}

	effective := orders.EffectiveMethods()
	require.Len(t, effective, 4)
	assert.Equal(t, ClassID("shop.Orders"), orders.MethodNamed("Place").Declaring)

	var names []string
	for _, m := range orders.InterceptableMethods() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Place", "Cancel"}, names)
	assert.True(t, orders.InterceptorMethodKinds()[AroundInvoke])
	assert.Nil(t, orders.MethodNamed("Missing"))

	ctor := orders.BeanConstructor()
	assert.True(t, ctor.Implicit)
	assert.Equal(t, "NewOrders", ctor.Name)
}

func TestClassMetadata_HierarchyStopsOnCycle(t *testing.T) {
	a := &ClassMetadata{ID: "shop.A", Name: "A"}
	b := &ClassMetadata{ID: "shop.B", Name: "B", Superclass: a}
	a.Superclass = b

	assert.Len(t, b.Hierarchy(), 2)
}

func TestNewInterceptorClass(t *testing.T) {
	base := &ClassMetadata{
		ID:      "tx.BaseInterceptor",
		Name:    "BaseInterceptor",
		Methods: []*MethodMetadata{{Name: "Init", InterceptorKinds: []InterceptionKind{PostConstruct}}},
	}
	tx := &ClassMetadata{
		ID:         "tx.TxInterceptor",
		Name:       "TxInterceptor",
		Superclass: base,
		Methods:    []*MethodMetadata{{Name: "Around", InterceptorKinds: []InterceptionKind{AroundInvoke}}},
	}

	ic := NewInterceptorClass(tx)
	assert.Equal(t, ClassID("tx.TxInterceptor"), ic.ClassID())
	assert.Equal(t, "TxInterceptor", ic.Name())
	assert.Equal(t, []ClassID{"tx.BaseInterceptor", "tx.TxInterceptor"}, ic.Hierarchy())
	assert.Equal(t, []InterceptionKind{AroundInvoke, PostConstruct}, ic.Kinds())
	assert.True(t, ic.IsEligible(PostConstruct))
	assert.False(t, ic.IsEligible(PreDestroy))
}
