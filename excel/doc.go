// Package excel reads and writes typed records through a sheet.
//
//	type Product struct {
//		ID    int64
//		Name  string          `default:"unknown"`
//		Price decimal.Decimal
//	}
//
//	src, err := sheet.OpenXLSX("products.xlsx", "")
//	r, err := excel.NewReader[Product](src, excel.WithLimit(100))
//	products, err := r.Read(ctx)
//
//	w, err := excel.NewWriter[Product](excel.WithMaxRowsPerSheet(50000))
//	err = w.WriteTo(ctx, out, products)
package excel
