package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewlens/harvester/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProducts(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv",
		"product_id,brand,product_name,flavor,size_variant,source_site,source_url,external_id\n"+
			"p1,Purina ONE,Tender Selects,Chicken,7lb,amazon,https://www.amazon.com/dp/B000AAAA01,B000AAAA01\n"+
			"p2,Blue Buffalo,Wilderness,,12lb,amazon,https://www.amazon.com/dp/B000BBBB02,\n")

	loader := NewLoader(catalogPath, filepath.Join(dir, "missing.csv"))
	products, err := loader.Products()

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.CatalogProduct{
		ProductID:   "p1",
		Brand:       "Purina ONE",
		ProductName: "Tender Selects",
		Flavor:      "Chicken",
		SizeVariant: "7lb",
		SourceSite:  "amazon",
		SourceURL:   "https://www.amazon.com/dp/B000AAAA01",
		ExternalID:  "B000AAAA01",
	}, products[0])
	assert.Equal(t, "", products[1].ExternalID)
}

func TestLoadProductsColumnOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv",
		"source_url,product_id,source_site,product_name,brand\n"+
			"https://example.com,p1,amazon,Tender Selects,Purina ONE\n")

	loader := NewLoader(catalogPath, "")
	products, err := loader.Products()

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ProductID)
	assert.Equal(t, "Tender Selects", products[0].ProductName)
}

func TestLoadProductsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "products.csv",
		"product_id,brand\np1,Purina ONE\n")

	loader := NewLoader(catalogPath, "")
	_, err := loader.Products()

	assert.ErrorIs(t, err, domain.ErrMissingColumns)
	assert.Contains(t, err.Error(), "product_name")
	assert.Contains(t, err.Error(), "source_url")
}

func TestExternalIDs(t *testing.T) {
	dir := t.TempDir()
	idsPath := writeFile(t, dir, "review_urls.csv",
		"product_id,asin\np1,B000AAAA01\np2,\n")

	loader := NewLoader("", idsPath)
	ids, err := loader.ExternalIDs()

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p1": "B000AAAA01"}, ids)
}

func TestExternalIDsMissingFile(t *testing.T) {
	loader := NewLoader("", filepath.Join(t.TempDir(), "nope.csv"))
	ids, err := loader.ExternalIDs()

	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestExternalIDsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	idsPath := writeFile(t, dir, "review_urls.csv", "product_id,url\np1,https://example.com\n")

	loader := NewLoader("", idsPath)
	ids, err := loader.ExternalIDs()

	require.NoError(t, err)
	assert.Nil(t, ids)
}
