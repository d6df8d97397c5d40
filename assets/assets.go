package assets

import (
	_ "embed"
)

//go:embed curated_products.csv
var CuratedProductsData []byte
