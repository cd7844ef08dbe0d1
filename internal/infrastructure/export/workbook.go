package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// Sheet names, in workbook order
const (
	sheetMetadata      = "Metadata"
	sheetSummary       = "Summary"
	sheetByCategory    = "By Category"
	sheetSubscriptions = "Subscriptions"
	sheetCoordinator   = "Coordinator Event Fees"
	sheetAthlete       = "Athlete Event Fees"
	sheetEventWise     = "Event-wise"
	sheetTopSpenders   = "Top Spenders"
	sheetTransactions  = "Transactions"
)

// SheetNames lists the nine workbook sheets in order
func SheetNames() []string {
	return []string{
		sheetMetadata, sheetSummary, sheetByCategory,
		sheetSubscriptions, sheetCoordinator, sheetAthlete,
		sheetEventWise, sheetTopSpenders, sheetTransactions,
	}
}

// WorkbookFormatter serializes a snapshot into an OOXML workbook. Numeric
// cells are written as numbers rounded to two decimals so spreadsheet
// formulas operate directly on exported data.
type WorkbookFormatter struct {
	config FormatterConfig
}

// NewWorkbookFormatter creates a new WorkbookFormatter. Constructed lazily
// behind the application layer's formatter factory so the text and
// aggregation paths never load the workbook dependency.
func NewWorkbookFormatter(config FormatterConfig) (*WorkbookFormatter, error) {
	return &WorkbookFormatter{config: config}, nil
}

// Extension returns the file extension for this format
func (f *WorkbookFormatter) Extension() string { return "xlsx" }

// ContentType returns the MIME type for this format
func (f *WorkbookFormatter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// sheetSpec describes one sheet: fixed column widths, header and data rows.
// A sheet with no header carries only the banner and metadata block.
type sheetSpec struct {
	name    string
	widths  []float64
	headers []string
	rows    [][]interface{}
}

// Format serializes the snapshot into the nine-sheet workbook
func (f *WorkbookFormatter) Format(snap *revenue.Snapshot) ([]byte, error) {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	styles, err := newWorkbookStyles(wb)
	if err != nil {
		return nil, fmt.Errorf("workbook styles: %w", err)
	}

	for i, spec := range f.sheets(snap) {
		if i == 0 {
			// The default sheet becomes the first report sheet
			if err := wb.SetSheetName("Sheet1", spec.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := wb.NewSheet(spec.name); err != nil {
				return nil, fmt.Errorf("create sheet %s: %w", spec.name, err)
			}
		}
		if err := f.writeSheet(wb, styles, snap, spec); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", spec.name, err)
		}
	}

	wb.SetActiveSheet(0)

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *WorkbookFormatter) sheets(snap *revenue.Snapshot) []sheetSpec {
	s := snap.Summary
	specs := []sheetSpec{
		{
			name:   sheetMetadata,
			widths: []float64{24, 40},
		},
		{
			name:    sheetSummary,
			widths:  []float64{26, 18},
			headers: []string{"Metric", "Value"},
			rows: [][]interface{}{
				{"Gross Revenue", num(s.Commission.GrossTotal)},
				{"Commission Rate", num(s.Commission.Rate)},
				{"Commission", num(s.Commission.CommissionTotal)},
				{"Net Revenue", num(s.Commission.NetTotal)},
				{"Order Revenue", num(s.OrderRevenue)},
				{"Payment Revenue", num(s.PaymentRevenue)},
				{"Premium Members", s.PremiumMembers},
			},
		},
		{
			name:    sheetByCategory,
			widths:  []float64{28, 12, 16},
			headers: []string{"Category", "Count", "Amount"},
		},
		{
			name:    sheetSubscriptions,
			widths:  []float64{28, 26, 12, 16},
			headers: []string{"Name", "ID", "Count", "Total Amount"},
		},
		{
			name:    sheetCoordinator,
			widths:  []float64{28, 26, 12, 16},
			headers: []string{"Name", "ID", "Count", "Total Amount"},
		},
		{
			name:    sheetAthlete,
			widths:  []float64{28, 26, 12, 16},
			headers: []string{"Name", "ID", "Count", "Total Amount"},
		},
		{
			name:    sheetEventWise,
			widths:  []float64{32, 18, 12, 16},
			headers: []string{"Event", "Sport", "Count", "Total Amount"},
		},
		{
			name:    sheetTopSpenders,
			widths:  []float64{8, 28, 32, 14, 16},
			headers: []string{"Rank", "Name", "Email", "Transactions", "Total Spent"},
		},
		{
			name:    sheetTransactions,
			widths:  []float64{12, 26, 20, 12, 24, 14, 36, 12, 12, 12},
			headers: []string{"Date", "ID", "Type", "Status", "Customer", "Customer Type", "Description", "Amount", "Commission", "Net"},
		},
	}

	for _, b := range snap.Buckets {
		specs[2].rows = append(specs[2].rows, []interface{}{b.Label, b.Count, num(b.AmountSum)})
	}
	for i, section := range breakdownSections(snap) {
		for _, r := range section.rows {
			specs[3+i].rows = append(specs[3+i].rows, []interface{}{r.Name, r.Key, r.Count, num(r.TotalAmount)})
		}
	}
	for _, e := range snap.EventWise {
		specs[6].rows = append(specs[6].rows, []interface{}{e.EventName, e.Sport, e.Count, num(e.TotalAmount)})
	}
	for _, ts := range revenue.RankTopSpenders(snap.TopSpenders) {
		specs[7].rows = append(specs[7].rows, []interface{}{ts.Rank, ts.Name, ts.Email, ts.Transactions, num(ts.TotalSpent)})
	}
	for _, tx := range recentTransactions(snap, f.config.recentLimit()) {
		commission, net := tx.Commission(f.config.TransactionRate)
		kind := string(tx.Kind)
		if tx.Subtype != "" {
			kind += " / " + tx.Subtype
		}
		specs[8].rows = append(specs[8].rows, []interface{}{
			tx.Date.Format("2006-01-02"), tx.ID, kind, tx.Status,
			tx.Customer.Name, tx.Customer.Type, tx.Description,
			num(tx.Amount), num(commission), num(net),
		})
	}

	return specs
}

// writeSheet lays out one sheet: merged two-row title banner, metadata
// mini-block, then header and data rows. Column widths are fixed, never
// auto-fit.
func (f *WorkbookFormatter) writeSheet(wb *excelize.File, styles workbookStyles, snap *revenue.Snapshot, spec sheetSpec) error {
	bannerCols := len(spec.headers)
	if bannerCols < 2 {
		bannerCols = 2
	}
	lastCol, err := excelize.ColumnNumberToName(bannerCols)
	if err != nil {
		return err
	}

	// Two-row title banner, merged across the sheet's columns
	if err := wb.MergeCell(spec.name, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := wb.MergeCell(spec.name, "A2", lastCol+"2"); err != nil {
		return err
	}
	if err := wb.SetCellValue(spec.name, "A1", f.config.ProductName); err != nil {
		return err
	}
	if err := wb.SetCellValue(spec.name, "A2", "Revenue Dashboard Export"); err != nil {
		return err
	}
	if err := wb.SetCellStyle(spec.name, "A1", "A1", styles.title); err != nil {
		return err
	}
	if err := wb.SetCellStyle(spec.name, "A2", "A2", styles.subtitle); err != nil {
		return err
	}

	// Metadata mini-block at rows 4-6
	row := 4
	for _, kv := range metadataRows(snap, f.config.now()) {
		cell := "A" + strconv.Itoa(row)
		if err := wb.SetSheetRow(spec.name, cell, &[]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
		row++
	}
	row++

	if len(spec.headers) > 0 {
		headerCell := "A" + strconv.Itoa(row)
		headerRow := make([]interface{}, len(spec.headers))
		for i, h := range spec.headers {
			headerRow[i] = h
		}
		if err := wb.SetSheetRow(spec.name, headerCell, &headerRow); err != nil {
			return err
		}
		endCell := lastCol + strconv.Itoa(row)
		if err := wb.SetCellStyle(spec.name, headerCell, endCell, styles.header); err != nil {
			return err
		}
		row++

		for _, dataRow := range spec.rows {
			cell := "A" + strconv.Itoa(row)
			r := dataRow
			if err := wb.SetSheetRow(spec.name, cell, &r); err != nil {
				return err
			}
			row++
		}
	}

	for i, width := range spec.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := wb.SetColWidth(spec.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

type workbookStyles struct {
	title    int
	subtitle int
	header   int
}

func newWorkbookStyles(wb *excelize.File) (workbookStyles, error) {
	title, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	subtitle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11, Italic: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	header, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return workbookStyles{}, err
	}
	return workbookStyles{title: title, subtitle: subtitle, header: header}, nil
}

// num converts a monetary figure to a plain number rounded to two decimals
func num(d decimal.Decimal) float64 {
	return revenue.RoundMoney(d).InexactFloat64()
}
