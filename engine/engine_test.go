package engine

import (
	"time"

	"github.com/vantage-org/vantage/schema"
)

// Shared fixtures: a small Stripe-like warehouse with customers, products,
// prices, subscriptions and payments wired by foreign keys.

func testCatalog() *schema.Catalog {
	return &schema.Catalog{
		Name: "test",
		Objects: map[string]schema.Object{
			"customer": {
				Label: "Customer",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeID},
					{Name: "email", Type: schema.TypeString},
					{Name: "country", Type: schema.TypeEnum, Enum: []string{"us", "de", "jp"}},
					{Name: "balance", Type: schema.TypeNumber, Unit: "currency"},
					{Name: "delinquent", Type: schema.TypeBoolean},
					{Name: "created", Type: schema.TypeTimestamp},
				},
			},
			"product": {
				Label: "Product",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeID},
					{Name: "name", Type: schema.TypeString},
					{Name: "created", Type: schema.TypeTimestamp},
				},
			},
			"price": {
				Label: "Price",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeID},
					{Name: "product_id", Type: schema.TypeID},
					{Name: "unit_amount", Type: schema.TypeNumber, Unit: "currency"},
					{Name: "currency", Type: schema.TypeEnum, Enum: []string{"usd", "eur"}},
					{Name: "created", Type: schema.TypeTimestamp},
				},
			},
			"subscription": {
				Label: "Subscription",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeID},
					{Name: "customer_id", Type: schema.TypeID},
					{Name: "price_id", Type: schema.TypeID},
					{Name: "status", Type: schema.TypeEnum, Enum: []string{"active", "canceled"}},
					{Name: "quantity", Type: schema.TypeNumber, Unit: "count"},
					{Name: "current_period_start", Type: schema.TypeTimestamp},
					{Name: "created", Type: schema.TypeTimestamp},
				},
				TimestampFields: []string{"current_period_start", "created"},
			},
			"payment": {
				Label: "Payment",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeID},
					{Name: "customer_id", Type: schema.TypeID},
					{Name: "amount", Type: schema.TypeNumber, Unit: "currency"},
					{Name: "currency", Type: schema.TypeEnum, Enum: []string{"usd", "eur"}},
					{Name: "status", Type: schema.TypeEnum, Enum: []string{"succeeded", "failed"}},
					{Name: "refunded", Type: schema.TypeBoolean},
					{Name: "created", Type: schema.TypeTimestamp},
				},
			},
		},
		Relationships: []schema.Relationship{
			{Source: "payment", SourceField: "customer_id", Target: "customer", TargetField: "id"},
			{Source: "subscription", SourceField: "customer_id", Target: "customer", TargetField: "id"},
			{Source: "subscription", SourceField: "price_id", Target: "price", TargetField: "id"},
			{Source: "price", SourceField: "product_id", Target: "product", TargetField: "id"},
		},
	}
}

func testWarehouse(cat *schema.Catalog) *Warehouse {
	w := NewWarehouse(cat)

	w.SetTable("customers", []Row{
		{"id": "cus_1", "email": "ada@example.com", "country": "us", "balance": 50.0, "delinquent": false, "created": "2024-11-01"},
		{"id": "cus_2", "email": "lin@example.com", "country": "de", "balance": 20.0, "delinquent": true, "created": "2024-12-15"},
	})

	w.SetTable("products", []Row{
		{"id": "prod_1", "name": "Starter", "created": "2024-10-01"},
		{"id": "prod_2", "name": "Scale", "created": "2024-10-01"},
	})

	w.SetTable("prices", []Row{
		{"id": "price_1", "product_id": "prod_1", "unit_amount": 900.0, "currency": "usd", "created": "2024-10-02"},
		{"id": "price_2", "product_id": "prod_2", "unit_amount": 4900.0, "currency": "usd", "created": "2024-10-02"},
	})

	w.SetTable("subscriptions", []Row{
		{"id": "sub_1", "customer_id": "cus_1", "price_id": "price_1", "status": "active", "quantity": 1.0,
			"current_period_start": "2025-01-01", "created": "2024-11-05"},
		{"id": "sub_2", "customer_id": "cus_2", "price_id": "price_2", "status": "active", "quantity": 3.0,
			"current_period_start": "2025-02-01", "created": "2024-12-20"},
	})

	w.SetTable("payments", []Row{
		{"id": "pay_1", "customer_id": "cus_1", "amount": 100.0, "currency": "usd", "status": "succeeded", "refunded": false, "created": "2025-01-05"},
		{"id": "pay_2", "customer_id": "cus_1", "amount": 200.0, "currency": "usd", "status": "succeeded", "refunded": false, "created": "2025-02-10"},
		{"id": "pay_3", "customer_id": "cus_2", "amount": 300.0, "currency": "usd", "status": "succeeded", "refunded": true, "created": "2025-02-20"},
	})

	return w
}

func testEngine() (*Engine, *Warehouse) {
	cat := testCatalog()
	return New(cat), testWarehouse(cat)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func paymentViews(e *Engine, w *Warehouse, fields ...FieldRef) []RowView {
	if len(fields) == 0 {
		fields = []FieldRef{{Object: "payment", Field: "amount"}}
	}
	views, err := e.BuildRowViews(w, []string{"payment"}, fields)
	if err != nil {
		panic(err)
	}
	return views
}

func monthBuckets(from, to string) []Bucket {
	b, err := Buckets(day(from), day(to), GranMonth)
	if err != nil {
		panic(err)
	}
	return b
}
