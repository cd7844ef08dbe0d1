package export

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

const (
	csvLineEnding = "\r\n"
	csvSepHint    = "sep=,"
)

// utf8BOM makes common spreadsheet tools detect the encoding correctly
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVFormatter serializes a snapshot into one CRLF-terminated delimited text
// blob, synchronously over in-memory data.
type CSVFormatter struct {
	config FormatterConfig
}

// NewCSVFormatter creates a new CSVFormatter
func NewCSVFormatter(config FormatterConfig) *CSVFormatter {
	return &CSVFormatter{config: config}
}

// Extension returns the file extension for this format
func (f *CSVFormatter) Extension() string { return "csv" }

// ContentType returns the MIME type for this format
func (f *CSVFormatter) ContentType() string { return "text/csv; charset=utf-8" }

// Format serializes the snapshot. A snapshot with zero transactions still
// yields a valid file carrying only its header and metadata sections.
func (f *CSVFormatter) Format(snap *revenue.Snapshot) ([]byte, error) {
	w := newCSVWriter()

	w.raw(csvSepHint)
	w.row(f.config.ProductName + " Revenue Dashboard Export")
	w.blank()

	w.row("METADATA")
	for _, kv := range metadataRows(snap, f.config.now()) {
		w.row(kv[0], kv[1])
	}
	w.blank()

	f.writeSummary(w, snap)
	f.writeBuckets(w, snap)
	f.writeBreakdowns(w, snap)
	f.writeEventWise(w, snap)
	f.writeTopSpenders(w, snap)
	f.writeTransactions(w, snap)

	return w.bytes(), nil
}

func (f *CSVFormatter) writeSummary(w *csvWriter, snap *revenue.Snapshot) {
	s := snap.Summary
	w.row("SUMMARY")
	w.row("Gross Revenue", amount(s.Commission.GrossTotal))
	w.row("Commission", amount(s.Commission.CommissionTotal))
	w.row("Net Revenue", amount(s.Commission.NetTotal))
	w.row("Order Revenue", amount(s.OrderRevenue))
	w.row("Payment Revenue", amount(s.PaymentRevenue))
	w.row("Premium Members", count(s.PremiumMembers))
	w.blank()
}

func (f *CSVFormatter) writeBuckets(w *csvWriter, snap *revenue.Snapshot) {
	w.row("REVENUE BY CATEGORY")
	w.row("Category", "Count", "Amount")
	for _, b := range snap.Buckets {
		w.row(b.Label, count(b.Count), amount(b.AmountSum))
	}
	w.blank()
}

func (f *CSVFormatter) writeBreakdowns(w *csvWriter, snap *revenue.Snapshot) {
	// Each breakdown section is emitted only when non-empty
	for _, section := range breakdownSections(snap) {
		if len(section.rows) == 0 {
			continue
		}
		w.row(section.title)
		w.row("Name", "ID", "Count", "Total Amount")
		for _, r := range section.rows {
			w.row(r.Name, r.Key, count(r.Count), amount(r.TotalAmount))
		}
		w.blank()
	}
}

func (f *CSVFormatter) writeEventWise(w *csvWriter, snap *revenue.Snapshot) {
	w.row("EVENT-WISE REVENUE")
	w.row("Event", "Sport", "Count", "Total Amount")
	for _, e := range snap.EventWise {
		w.row(e.EventName, e.Sport, count(e.Count), amount(e.TotalAmount))
	}
	w.blank()
}

func (f *CSVFormatter) writeTopSpenders(w *csvWriter, snap *revenue.Snapshot) {
	w.row("TOP SPENDERS")
	w.row("Rank", "Name", "Email", "Transactions", "Total Spent")
	for _, s := range revenue.RankTopSpenders(snap.TopSpenders) {
		w.row(strconv.Itoa(s.Rank), s.Name, s.Email, count(s.Transactions), amount(s.TotalSpent))
	}
	w.blank()
}

func (f *CSVFormatter) writeTransactions(w *csvWriter, snap *revenue.Snapshot) {
	w.row("RECENT TRANSACTIONS")
	w.row("Date", "ID", "Type", "Status", "Customer", "Customer Type", "Description", "Amount", "Commission", "Net")
	for _, tx := range recentTransactions(snap, f.config.recentLimit()) {
		commission, net := tx.Commission(f.config.TransactionRate)
		kind := string(tx.Kind)
		if tx.Subtype != "" {
			kind += " / " + tx.Subtype
		}
		w.row(
			tx.Date.Format("2006-01-02"),
			tx.ID,
			kind,
			tx.Status,
			tx.Customer.Name,
			tx.Customer.Type,
			tx.Description,
			amount(tx.Amount),
			amount(commission),
			amount(net),
		)
	}
}

// count renders an integer count with no thousands separators
func count(n int64) string {
	return strconv.FormatInt(n, 10)
}

// csvWriter accumulates CRLF-terminated rows behind a UTF-8 BOM
type csvWriter struct {
	buf bytes.Buffer
}

func newCSVWriter() *csvWriter {
	w := &csvWriter{}
	w.buf.Write(utf8BOM)
	return w
}

// raw writes a line without field escaping (the sep= hint must stay bare)
func (w *csvWriter) raw(line string) {
	w.buf.WriteString(line)
	w.buf.WriteString(csvLineEnding)
}

// row escapes each field and joins them with commas
func (w *csvWriter) row(fields ...string) {
	for i, f := range fields {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteString(escapeField(f))
	}
	w.buf.WriteString(csvLineEnding)
}

// blank writes an empty separator line
func (w *csvWriter) blank() {
	w.buf.WriteString(csvLineEnding)
}

func (w *csvWriter) bytes() []byte {
	return w.buf.Bytes()
}

// escapeField wraps a field in double quotes, doubling internal quotes, iff
// the field contains a comma, a double quote, a newline, or leading/trailing
// whitespace; otherwise the field is emitted bare. CRLF/CR inside a field is
// normalized to LF before the check.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if !needsQuoting(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, ",\"\n") {
		return true
	}
	return s != strings.TrimSpace(s)
}
