// import_bank importa movimientos desde el extracto CSV del banco y los crea
// como transacciones (ingresos y gastos) de una empresa.
//
// Los bancos españoles exportan CSV en ISO-8859-1 con punto y coma como
// separador, importes con coma decimal y fecha DD/MM/YYYY:
//
//	fecha;concepto;importe
//	15/01/2026;TRANSFERENCIA RECIBIDA;1.250,00
//	16/01/2026;RECIBO LUZ;-87,35
//
// Importes positivos se registran como income, negativos como expense.
//
// Uso: go run ./cmd/import_bank -company <company_id> [-category banco] extracto.csv
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/facturalia/facturas-api/internal/application/dto"
	"github.com/facturalia/facturas-api/internal/application/ledger"
	"github.com/facturalia/facturas-api/internal/infrastructure/postgres"
	"github.com/facturalia/facturas-api/pkg/config"
)

func main() {
	companyID := flag.String("company", "", "ID de la empresa destino")
	category := flag.String("category", "banco", "categoría asignada a los movimientos")
	flag.Parse()

	if *companyID == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_bank -company <company_id> [-category banco] extracto.csv")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	uc := ledger.NewTransactionUseCase(postgres.NewTransactionRepository(pool))

	created, skipped, err := importCSV(f, uc, *companyID, *category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "importar: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("importados %d movimientos (%d filas descartadas)\n", created, skipped)
}

// importCSV lee el extracto, fila a fila, y crea los movimientos. Filas sin
// fecha, sin concepto o con importe cero se descartan sin abortar el resto.
func importCSV(r io.Reader, uc *ledger.TransactionUseCase, companyID, category string) (created, skipped int, err error) {
	reader := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, skipped, fmt.Errorf("línea %d: %w", line+1, err)
		}
		if line == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "fecha") {
			continue // cabecera
		}
		if len(record) < 3 {
			skipped++
			continue
		}

		date := normalizeDate(strings.TrimSpace(record[0]))
		concept := strings.TrimSpace(record[1])
		amount := normalizeAmount(strings.TrimSpace(record[2]))
		if date == "" || concept == "" || amount == "" || amount == "0" {
			skipped++
			continue
		}

		txType := "income"
		if strings.HasPrefix(amount, "-") {
			txType = "expense"
			amount = strings.TrimPrefix(amount, "-")
		}

		raw, _ := json.Marshal(amount)
		if _, err := uc.Create(companyID, dto.CreateTransactionRequest{
			Type:     txType,
			Concept:  concept,
			Category: category,
			Amount:   json.RawMessage(raw),
			Date:     date,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "línea %d: %v (descartada)\n", line+1, err)
			skipped++
			continue
		}
		created++
	}
	return created, skipped, nil
}

// normalizeDate convierte DD/MM/YYYY a YYYY-MM-DD. Si ya viene en ISO la
// devuelve tal cual.
func normalizeDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		if len(s) == 10 && s[4] == '-' && s[7] == '-' {
			return s
		}
		return ""
	}
	d, m, y := parts[0], parts[1], parts[2]
	if len(y) != 4 || len(d) == 0 || len(m) == 0 {
		return ""
	}
	if len(d) == 1 {
		d = "0" + d
	}
	if len(m) == 1 {
		m = "0" + m
	}
	return y + "-" + m + "-" + d
}

// normalizeAmount convierte "1.250,00" (formato español) a "1250.00".
func normalizeAmount(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return s
}
