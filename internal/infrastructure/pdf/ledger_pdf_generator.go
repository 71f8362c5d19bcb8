package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/facturalia/facturas-api/internal/application/ledger"
)

var _ ledger.PDFGenerator = (*MarotoPDFGenerator)(nil)

// GenerateLedgerPDF genera el libro de registros en PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateLedgerPDF(_ context.Context, book *ledger.Book) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Libro de registros", true).
		WithAuthor(book.CompanyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(ledgerHeaderRow(book))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(ledgerTableHeaderRow())
	for _, r := range ledgerRows(book) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(ledgerTotalsRow(book))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar libro: %w", err)
	}
	return doc.GetBytes(), nil
}

func ledgerHeaderRow(book *ledger.Book) core.Row {
	rango := "Todos los movimientos"
	if book.From != nil || book.To != nil {
		desde, hasta := "—", "—"
		if book.From != nil {
			desde = book.From.Format("02/01/2006")
		}
		if book.To != nil {
			hasta = book.To.Format("02/01/2006")
		}
		rango = fmt.Sprintf("Del %s al %s", desde, hasta)
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("LIBRO DE REGISTROS", props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New(book.CompanyName, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New(rango, props.Text{Size: 8, Align: align.Right, Top: 2, Color: colorGray}),
		),
	)
}

func ledgerTableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Fecha", 1, align.Left),
		h("Tipo", 1, align.Center),
		h("Concepto", 4, align.Left),
		h("Base", 2, align.Right),
		h("IVA", 1, align.Right),
		h("IRPF", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

func ledgerRows(book *ledger.Book) []core.Row {
	tipo := map[string]string{
		"invoice": "Factura",
		"income":  "Ingreso",
		"expense": "Gasto",
	}
	result := make([]core.Row, 0, len(book.Rows))
	for _, r := range book.Rows {
		label := tipo[r.Type]
		if label == "" {
			label = r.Type
		}
		result = append(result, row.New(6).Add(
			col.New(1).Add(text.New(r.Date.Format("02/01/2006"), props.Text{Size: 7, Top: 1})),
			col.New(1).Add(text.New(label, props.Text{Size: 7, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(r.Concept, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(r.Base.StringFixed(2), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(r.IVA.StringFixed(2), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(r.IRPF.Neg().StringFixed(2), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1, Color: colorRed})),
			col.New(2).Add(text.New(r.Total.StringFixed(2), props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func ledgerTotalsRow(book *ledger.Book) core.Row {
	v := func(s string, c *props.Color) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 1, Color: c,
		})
	}
	return row.New(8).Add(
		col.New(2).Add(text.New("TOTALES", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		})),
		col.New(4),
		col.New(2).Add(v(book.TotalBase.StringFixed(2), nil)),
		col.New(1).Add(v(book.TotalIVA.StringFixed(2), nil)),
		col.New(1).Add(v(book.TotalIRPF.Neg().StringFixed(2), colorRed)),
		col.New(2).Add(v(book.Total.StringFixed(2), colorPrimary)),
	)
}
