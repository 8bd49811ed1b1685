package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// Transaction is one line of an Anrok transactions export. Columns are
// found by header name, so exports with extra or reordered columns load.
type Transaction struct {
	TransactionID       string         `json:"transactionId"`
	CustomerID          pgtype.Text    `json:"customerId"`
	CustomerName        pgtype.Text    `json:"customerName"`
	InvoiceDate         pgtype.Date    `json:"invoiceDate"`
	TaxDate             pgtype.Date    `json:"taxDate"`
	TransactionCurrency pgtype.Text    `json:"currency"`
	SalesAmount         pgtype.Numeric `json:"salesAmount"`
	TaxAmount           pgtype.Numeric `json:"taxAmount"`
	InvoiceAmount       pgtype.Numeric `json:"invoiceAmount"`
	Void                pgtype.Bool    `json:"void"`
	CustomerRegion      pgtype.Text    `json:"customerRegion"`
	CustomerCountryCode pgtype.Text    `json:"customerCountryCode"`
}

var transactionHeaders = []string{
	"Transaction ID",
	"Customer ID",
	"Customer name",
	"Invoice date",
	"Tax date",
	"Transaction currency",
	"Sales amount",
	"Tax amount",
	"Invoice amount",
	"Void",
	"Customer address region",
	"Customer country code",
}

var transactionColumns = []string{
	"transaction_id",
	"customer_id",
	"customer_name",
	"invoice_date",
	"tax_date",
	"transaction_currency",
	"sales_amount",
	"tax_amount",
	"invoice_amount",
	"void",
	"customer_address_region",
	"customer_country_code",
}

// transactionID rejects blank IDs; every other column is nullable.
var transactionID = typeconv.Func[string](func(f typeconv.Field) (string, bool) {
	if f.IsBlank() {
		return "", false
	}
	return typeconv.CleanCell(f.Text), true
})

func transactionMapper(header []string) (*mapping.Mapper[Transaction], error) {
	b := &headerBinder{idx: newHeaderIndex(header)}
	text := typeconv.PgText{}
	date := typeconv.PgDate{}
	money := typeconv.PgNumeric{}

	fields := []mapping.Field[Transaction]{
		bindHeader(b, "Transaction ID", transactionID, func(t *Transaction, v string) { t.TransactionID = v }),
		bindHeader(b, "Customer ID", text, func(t *Transaction, v pgtype.Text) { t.CustomerID = v }),
		bindHeader(b, "Customer name", text, func(t *Transaction, v pgtype.Text) { t.CustomerName = v }),
		bindHeader(b, "Invoice date", date, func(t *Transaction, v pgtype.Date) { t.InvoiceDate = v }),
		bindHeader(b, "Tax date", date, func(t *Transaction, v pgtype.Date) { t.TaxDate = v }),
		bindHeader(b, "Transaction currency", text, func(t *Transaction, v pgtype.Text) { t.TransactionCurrency = v }),
		bindHeader(b, "Sales amount", money, func(t *Transaction, v pgtype.Numeric) { t.SalesAmount = v }),
		bindHeader(b, "Tax amount", money, func(t *Transaction, v pgtype.Numeric) { t.TaxAmount = v }),
		bindHeader(b, "Invoice amount", money, func(t *Transaction, v pgtype.Numeric) { t.InvoiceAmount = v }),
		bindHeader(b, "Void", typeconv.PgBool{}, func(t *Transaction, v pgtype.Bool) { t.Void = v }),
		bindHeader(b, "Customer address region", usState, func(t *Transaction, v pgtype.Text) { t.CustomerRegion = v }),
		bindHeader(b, "Customer country code", text, func(t *Transaction, v pgtype.Text) { t.CustomerCountryCode = v }),
	}
	if err := b.done(); err != nil {
		return nil, err
	}
	return mapping.New(fields)
}

func registerTransactions() {
	core.Register(core.Define(core.Definition[Transaction]{
		Info: core.SchemaInfo{
			Key:     "transactions",
			Group:   "Anrok",
			Label:   "Transactions",
			Table:   "anrok_transactions",
			Columns: transactionHeaders,
		},
		NeedsHeader: true,
		Mapper:      transactionMapper,
		CopyColumns: transactionColumns,
		CopyRow: func(t Transaction) []any {
			return []any{
				t.TransactionID,
				t.CustomerID,
				t.CustomerName,
				t.InvoiceDate,
				t.TaxDate,
				t.TransactionCurrency,
				t.SalesAmount,
				t.TaxAmount,
				t.InvoiceAmount,
				t.Void,
				t.CustomerRegion,
				t.CustomerCountryCode,
			}
		},
	}))
}
