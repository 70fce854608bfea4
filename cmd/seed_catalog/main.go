// seed_catalog genera un script SQL para dar de alta productos de tienda a partir de un catálogo CSV
// exportado por el ERP del vendedor (separador ';', UTF-8 o ISO-8859-1).
//
// Columnas: shop_id;product_id;name;price
//
// Uso: go run ./cmd/seed_catalog catalogo.csv [salida.sql]
// Por defecto escribe seed_catalog.sql en el directorio actual.
// Los productos se crean con stock 0: el stock inicial entra con una recepción para que el libro cuadre.
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

type catalogRow struct {
	ShopID    string
	ProductID string
	Name      string
	Price     decimal.Decimal
}

// shopProductID id estable del producto de tienda para que reejecutar el script no duplique filas.
func (r catalogRow) shopProductID() string {
	return "sp-" + r.ShopID + "-" + r.ProductID
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := "seed_catalog.sql"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	rows, err := parseCatalog(bytes.NewReader(raw), !utf8.Valid(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := writeSQL(w, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", outPath, len(rows))
}

// parseCatalog lee el CSV; con latin1 decodifica ISO-8859-1. La primera fila es cabecera.
func parseCatalog(r io.Reader, latin1 bool) ([]catalogRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("cabecera: %w", err)
	}

	seen := make(map[string]int)
	var rows []catalogRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row := catalogRow{
			ShopID:    strings.TrimSpace(rec[0]),
			ProductID: strings.TrimSpace(rec[1]),
			Name:      textnorm.Comment(rec[2]),
		}
		if row.ShopID == "" || row.ProductID == "" || row.Name == "" {
			return nil, fmt.Errorf("línea %d: shop_id, product_id y name requeridos", line)
		}
		// Los ERP suelen exportar con coma decimal.
		price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, rec[3])
		}
		row.Price = price
		// La última aparición de un producto en la misma tienda gana.
		if i, ok := seen[row.shopProductID()]; ok {
			rows[i] = row
			continue
		}
		seen[row.shopProductID()] = len(rows)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].shopProductID() < rows[j].shopProductID() })
	return rows, nil
}

func writeSQL(w io.Writer, rows []catalogRow) error {
	if _, err := io.WriteString(w, "-- Productos de tienda generados desde el catálogo CSV\n-- Stock inicial 0: cargar existencias con una recepción.\n\n"); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(w,
			"INSERT INTO shop_products (id, shop_id, product_id, name, price, stock_quantity, status)\n"+
				"VALUES ('%s', '%s', '%s', '%s', %s, 0, 'ACTIVE')\n"+
				"ON CONFLICT (shop_id, product_id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, updated_at = now();\n",
			escapeSQL(r.shopProductID()), escapeSQL(r.ShopID), escapeSQL(r.ProductID), escapeSQL(r.Name), r.Price.StringFixed(2))
		if err != nil {
			return err
		}
	}
	return nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
