package pipeline

import (
	"github.com/Veraticus/eshop-analytics/internal/common"
)

// Field is the canonical name of a sale-line column.
type Field string

// Canonical fields.
const (
	FieldCustomerID   Field = "customerId"
	FieldCustomerName Field = "customerName"
	FieldCity         Field = "city"
	FieldItem         Field = "item"
	FieldDate         Field = "date"
	FieldQuantity     Field = "quantity"
	FieldUnitPrice    Field = "unitPrice"
	FieldTotalPrice   Field = "totalPrice"
)

// RequiredFields must all be present in a batch's column set.
// totalPrice is required structurally even though its values are always recomputed.
var RequiredFields = []Field{
	FieldCustomerID,
	FieldCustomerName,
	FieldCity,
	FieldItem,
	FieldQuantity,
	FieldUnitPrice,
	FieldTotalPrice,
}

// fieldAliases maps folded header names to canonical fields. The Portuguese
// headers are what the shop's spreadsheet exports use.
var fieldAliases = map[string]Field{
	"customerid":    FieldCustomerID,
	"idcustomer":    FieldCustomerID,
	"idcliente":     FieldCustomerID,
	"clienteid":     FieldCustomerID,
	"codcliente":    FieldCustomerID,
	"codigocliente": FieldCustomerID,

	"customername":  FieldCustomerName,
	"customer":      FieldCustomerName,
	"cliente":       FieldCustomerName,
	"nomecliente":   FieldCustomerName,
	"nomedocliente": FieldCustomerName,

	"city":      FieldCity,
	"cidade":    FieldCity,
	"municipio": FieldCity,

	"item":        FieldItem,
	"product":     FieldItem,
	"productname": FieldItem,
	"produto":     FieldItem,

	"date":      FieldDate,
	"saledate":  FieldDate,
	"data":      FieldDate,
	"datavenda": FieldDate,

	"quantity":   FieldQuantity,
	"qty":        FieldQuantity,
	"quantidade": FieldQuantity,
	"qtd":        FieldQuantity,
	"qtde":       FieldQuantity,

	"unitprice":     FieldUnitPrice,
	"precounitario": FieldUnitPrice,
	"valorunitario": FieldUnitPrice,

	"totalprice": FieldTotalPrice,
	"total":      FieldTotalPrice,
	"precototal": FieldTotalPrice,
	"valortotal": FieldTotalPrice,
}

// CanonicalField resolves a header name to its canonical field.
func CanonicalField(header string) (Field, bool) {
	f, ok := fieldAliases[common.FoldKey(header)]
	return f, ok
}

// columnMap maps each canonical field to the source column that carries it.
type columnMap map[Field]string

// resolveColumns maps the batch's columns to canonical fields; the first
// matching column wins. It returns the canonical names that are missing.
func resolveColumns(columns []string, required []Field) (columnMap, []string) {
	cols := make(columnMap, len(columns))
	for _, c := range columns {
		f, ok := CanonicalField(c)
		if !ok {
			continue
		}
		if _, seen := cols[f]; !seen {
			cols[f] = c
		}
	}

	var missing []string
	for _, f := range required {
		if _, ok := cols[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	return cols, missing
}
