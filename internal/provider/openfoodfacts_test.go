package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalorio/kalorio/config"
)

const foundPayload = `{
  "status": 1,
  "product": {
    "product_name": "Hafermilch Barista",
    "brands": "Oatly, Oatly AB",
    "categories_tags": ["en:plant-based-foods-and-beverages", "en:beverages"],
    "image_url": "https://images.example.org/hafermilch.jpg",
    "nutriments": {
      "energy-kcal_100g": 59,
      "proteins_100g": "1.1",
      "carbohydrates_100g": 6.6,
      "fat_100g": 3,
      "sugars_100g": 3.4
    },
    "allergens_tags": ["en:gluten", "de:hafer"],
    "stores": "Rewe, Edeka"
  }
}`

func testClient(baseURL string, timeoutSeconds int) *Client {
	return NewClient(config.ProviderConfig{
		BaseURL:   baseURL,
		Timeout:   timeoutSeconds,
		UserAgent: "kalorio-test",
	})
}

func TestFetchByBarcodeNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/4099200179193.json", r.URL.Path)
		assert.Equal(t, "kalorio-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(foundPayload))
	}))
	defer server.Close()

	p, err := testClient(server.URL, 2).FetchByBarcode(context.Background(), "4099200179193")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "4099200179193", p.Barcode)
	assert.Equal(t, "Hafermilch Barista", p.Name)
	assert.Equal(t, "Oatly", p.Brand)
	assert.Equal(t, "beverages", p.Category)
	assert.Equal(t, 59.0, p.Nutrition.Calories)
	assert.Equal(t, 1.1, p.Nutrition.Protein)
	assert.Equal(t, 6.6, p.Nutrition.Carbs)
	assert.Equal(t, 3.0, p.Nutrition.Fat)
	// absent upstream fields default to zero, not null
	assert.Equal(t, 0.0, p.Nutrition.Fiber)
	assert.Equal(t, 0.0, p.Nutrition.Salt)
	assert.Equal(t, []string{"gluten", "hafer"}, p.Allergens)
	assert.Equal(t, []string{"rewe", "edeka"}, p.Stores)
	assert.Equal(t, "external-import", p.Source)
}

func TestFetchByBarcodeMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer server.Close()

	p, err := testClient(server.URL, 2).FetchByBarcode(context.Background(), "00000000")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFetchByBarcode404IsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, err := testClient(server.URL, 2).FetchByBarcode(context.Background(), "00000000")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFetchByBarcodeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 2).FetchByBarcode(context.Background(), "40084015")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestFetchByBarcodeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	start := time.Now()
	_, err := testClient(server.URL, 1).FetchByBarcode(context.Background(), "40084015")
	require.ErrorIs(t, err, ErrUpstream)
	assert.Less(t, time.Since(start), 1900*time.Millisecond)
}

func TestFetchByBarcodeSingleflight(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(foundPayload))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := client.FetchByBarcode(context.Background(), "4099200179193")
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&hits), int32(2))
}

func TestMapCategoryFallback(t *testing.T) {
	assert.Equal(t, "other", mapCategory([]string{"en:completely-unknown"}))
	assert.Equal(t, "other", mapCategory(nil))
	assert.Equal(t, "dairy", mapCategory([]string{"en:cheeses"}))
	assert.Equal(t, "sweets", mapCategory([]string{"en:chocolate-spreads"}))
}
