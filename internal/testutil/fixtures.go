package testutil

import (
	"time"

	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/shopspring/decimal"
)

// Sale builds a record with its total computed. A zero date means unknown.
func Sale(id string, customerID int, name, city, item string, qty int, unitPrice string, date time.Time) model.SaleRecord {
	r := model.SaleRecord{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: name,
		City:         city,
		Item:         item,
		Quantity:     qty,
		UnitPrice:    decimal.RequireFromString(unitPrice),
		Date:         date,
	}
	r.Recompute()
	return r
}

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleSales is a six-record collection over three cities and four customers.
// Revenue is 4940: Ana 3600, Carla 900, Davi 240, Bruno 200; São Paulo 3600,
// Recife 1100, Manaus 240.
func SampleSales() model.Collection {
	return model.Collection{
		Sale("r1", 1, "Ana", "São Paulo", "Notebook", 1, "3500.00", Day(2024, 1, 10)),
		Sale("r2", 2, "Bruno", "Recife", "Mouse", 3, "50.00", Day(2024, 1, 20)),
		Sale("r3", 1, "Ana", "São Paulo", "Mouse", 2, "50.00", Day(2024, 3, 5)),
		Sale("r4", 3, "Carla", "Recife", "Monitor", 1, "900.00", time.Time{}),
		Sale("r5", 4, "Davi", "Manaus", "Teclado", 2, "120.00", Day(2024, 3, 28)),
		Sale("r6", 2, "Bruno", "Recife", "Cabo HDMI", 5, "10.00", Day(2024, 1, 21)),
	}
}

// SampleCSV is SampleSales as the shop's semicolon-separated export with
// Portuguese headers and Brazilian number formatting. Totals are deliberately
// wrong; ingest recomputes them.
const SampleCSV = "ID Cliente;Cliente;Cidade;Produto;Data;Quantidade;Preço Unitário;Preço Total\n" +
	"1;Ana;São Paulo;Notebook;10/01/2024;1;R$ 3.500,00;0\n" +
	"2;Bruno;Recife;Mouse;20/01/2024;3;50,00;0\n" +
	"1;Ana;São Paulo;Mouse;05/03/2024;2;50,00;0\n" +
	"3;Carla;Recife;Monitor;;1;900,00;0\n" +
	"4;Davi;Manaus;Teclado;28/03/2024;2;120,00;0\n" +
	"2;Bruno;Recife;Cabo HDMI;21/01/2024;5;10,00;0\n"
