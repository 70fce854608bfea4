package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCatalog_Latin1YComaDecimal(t *testing.T) {
	src := "shop_id;product_id;name;price\nshop-1;apple;Manzana roja;1,50\nshop-1;pina;Piña dulce;3200\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	rows, err := parseCatalog(strings.NewReader(encoded), true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sp-shop-1-apple", rows[0].shopProductID())
	assert.Equal(t, "1.5", rows[0].Price.String())
	assert.Equal(t, "Piña dulce", rows[1].Name)
}

func TestParseCatalog_UltimaAparicionGana(t *testing.T) {
	src := "shop_id;product_id;name;price\nshop-1;apple;Manzana;100\nshop-1;apple;Manzana verde;120\n"
	rows, err := parseCatalog(strings.NewReader(src), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Manzana verde", rows[0].Name)
}

func TestParseCatalog_PrecioInvalido(t *testing.T) {
	_, err := parseCatalog(strings.NewReader("shop_id;product_id;name;price\nshop-1;apple;Manzana;gratis\n"), false)
	assert.ErrorContains(t, err, "línea 2")
}

func TestWriteSQL_EscapaComillasYStockCero(t *testing.T) {
	rows, err := parseCatalog(strings.NewReader("shop_id;product_id;name;price\nshop-1;nuts;Nueces d'Anjou;12\n"), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, rows))
	out := buf.String()
	assert.Contains(t, out, "'Nueces d''Anjou'")
	assert.Contains(t, out, "12.00, 0, 'ACTIVE'")
	assert.Contains(t, out, "ON CONFLICT (shop_id, product_id)")
}
