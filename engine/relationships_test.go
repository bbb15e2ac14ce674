package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveSingleHop(t *testing.T) {
	e, w := testEngine()
	pay := w.Table("payment")[0]

	got := e.Resolve(w, pay, "payment", FieldRef{Object: "customer", Field: "email"})
	require.Equal(t, "ada@example.com", got)
}

func TestResolveMultiHop(t *testing.T) {
	e, w := testEngine()
	sub := w.Table("subscription")[1] // sub_2 -> price_2 -> prod_2

	got := e.Resolve(w, sub, "subscription", FieldRef{Object: "product", Field: "name"})
	require.Equal(t, "Scale", got)
}

func TestResolveMissingJoin(t *testing.T) {
	e, w := testEngine()

	// Dangling foreign key: no such customer.
	orphan := Row{"id": "pay_x", "customer_id": "cus_missing", "amount": 10.0}
	require.Nil(t, e.Resolve(w, orphan, "payment", FieldRef{Object: "customer", Field: "email"}))

	// Unreachable object.
	cus := w.Table("customer")[0]
	require.Nil(t, e.Resolve(w, cus, "customer", FieldRef{Object: "product", Field: "name"}))
}

func TestResolveSameObject(t *testing.T) {
	e, w := testEngine()
	pay := w.Table("payment")[0]
	require.Equal(t, 100.0, e.Resolve(w, pay, "payment", FieldRef{Object: "payment", Field: "amount"}))
}

func TestResolveBatchMatchesPerRow(t *testing.T) {
	e, w := testEngine()
	rows := w.Table("subscription")
	target := FieldRef{Object: "product", Field: "name"}

	batch := e.ResolveBatch(w, rows, "subscription", target)
	require.Len(t, batch, len(rows))
	for i, row := range rows {
		require.Equal(t, e.Resolve(w, row, "subscription", target), batch[i])
	}
}

func TestResolveIndexInvalidation(t *testing.T) {
	e, w := testEngine()
	pay := w.Table("payment")[0]
	target := FieldRef{Object: "customer", Field: "email"}

	require.Equal(t, "ada@example.com", e.Resolve(w, pay, "payment", target))

	// Replacing the table bumps its version; the cached index must rebuild.
	w.SetTable("customers", []Row{
		{"id": "cus_1", "email": "ada@renamed.example.com", "country": "us", "created": "2024-11-01"},
	})
	require.Equal(t, "ada@renamed.example.com", e.Resolve(w, pay, "payment", target))
}

func TestReachable(t *testing.T) {
	e, _ := testEngine()
	require.True(t, e.Reachable("payment", "customer"))
	require.True(t, e.Reachable("subscription", "product"))
	require.True(t, e.Reachable("payment", "payment"))
	require.False(t, e.Reachable("customer", "payment"))
	require.False(t, e.Reachable("payment", "product"))
}
