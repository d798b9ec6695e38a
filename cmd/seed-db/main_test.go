package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/product"
)

const sample = `[
	{"id":"p1","name":"Wireless Mouse","price":19.99},
	{"id":"p2","name":"Mechanical Keyboard","price":"59.4950"}
]`

func TestParseProducts(t *testing.T) {
	products, err := parseProducts(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "19.99", products[0].Price.String())
	assert.Equal(t, "59.495", products[1].Price.String())
}

func TestParseProducts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"not json", `{`, "parse products JSON"},
		{"missing id", `[{"name":"x","price":1}]`, "id is required"},
		{"duplicate", `[{"id":"p1","price":1},{"id":"p1","price":2}]`, "duplicate id"},
		{"negative", `[{"id":"p1","price":-1}]`, product.ErrNegativePrice.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProducts(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadProducts_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	products, err := loadProducts(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestLoadProducts_SeedFile(t *testing.T) {
	products, err := loadProducts(filepath.Join("..", "..", "db", "seed", "products.json"))
	require.NoError(t, err)

	catalog := product.NewCatalog(products...)
	want := product.NewCatalog(product.DefaultProducts()...)
	require.Equal(t, want.Len(), catalog.Len())
	for _, p := range want.List() {
		got, ok := catalog.Get(p.ID)
		require.True(t, ok, p.ID)
		assert.Equal(t, p.Name, got.Name)
		assert.True(t, p.Price.Equal(got.Price), p.ID)
	}
}
