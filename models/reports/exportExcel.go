package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

// Workbook is a rendered spreadsheet ready to be written to a response.
type Workbook struct {
	Filename string
	Data     []byte
	Archived bool
}

type countExportRow struct {
	record        models.CountRecord
	warehouseName string
}

func nullCell(v decimal.NullDecimal) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Decimal.InexactFloat64()
}

func (r countExportRow) GetCellValues() []interface{} {
	name := r.warehouseName
	if name == "" {
		name = r.record.WarehouseId
	}
	return []interface{}{
		r.record.CountDate,
		name,
		r.record.ProductCode,
		r.record.Name,
		r.record.Unit,
		r.record.ReferenceQuantity.InexactFloat64(),
		nullCell(r.record.Count1),
		nullCell(r.record.Count2),
		nullCell(r.record.Variance()),
		r.record.UnitCost.InexactFloat64(),
		r.record.ValuedVariance().InexactFloat64(),
		r.record.Notes,
	}
}

var countExportHeadings = []string{
	"Fecha", "Bodega", "Codigo", "Producto", "Unidad", "Sistema",
	"Conteo 1", "Conteo 2", "Diferencia", "Costo Unitario", "Diferencia Valorizada", "Observaciones",
}

type crossMatchExportRow struct {
	detail models.CrossMatchDetail
}

func (r crossMatchExportRow) GetCellValues() []interface{} {
	return []interface{}{
		r.detail.ProductCode,
		r.detail.Name,
		r.detail.Category,
		r.detail.Unit,
		string(r.detail.Origin),
		nullCell(r.detail.PhysicalQuantity),
		nullCell(r.detail.ReferenceQuantity),
		nullCell(r.detail.Variance),
		r.detail.UnitCost.InexactFloat64(),
		r.detail.ValuedVariance.InexactFloat64(),
		r.detail.ImportanceTier,
	}
}

var crossMatchExportHeadings = []string{
	"Codigo", "Producto", "Categoria", "Unidad", "Origen", "Fisico",
	"Sistema", "Diferencia", "Costo Unitario", "Diferencia Valorizada", "Clasificacion",
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// renderWorkbook writes one sheet with a bold header row and one line per exporter.
func renderWorkbook(sheetName string, headings []string, data []ExcelExporter) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1E3A5F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range headings {
		if err := f.SetCellValue(sheetName, cell(colName(i), 1), h); err != nil {
			return nil, err
		}
	}
	if len(headings) > 0 {
		if err := f.SetCellStyle(sheetName, "A1", cell(colName(len(headings)-1), 1), headerStyle); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, "A", colName(len(headings)-1), 16); err != nil {
			return nil, err
		}
	}

	rowNo := 2
	for _, d := range data {
		for i, value := range d.GetCellValues() {
			if value == nil {
				continue
			}
			if err := f.SetCellValue(sheetName, cell(colName(i), rowNo), value); err != nil {
				return nil, err
			}
		}
		rowNo++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// archive copies the workbook to object storage when a bucket is configured.
// Failures are logged; the download still goes out.
func archive(ctx context.Context, kind string, wb *Workbook) {
	objectName := utils.ExportObjectName(kind, wb.Filename, time.Now())
	archived, err := utils.ArchiveExport(ctx, objectName, wb.Data)
	if err != nil {
		config.LogError(config.GetLogger(), "exportExcel.go", "archive", "archiving export", objectName, err)
		return
	}
	wb.Archived = archived
}

// ExportCounts renders every count record in [from, to] as a spreadsheet.
func ExportCounts(ctx context.Context, from string, to string, warehouseId string) (*Workbook, error) {
	records, err := models.QueryRange(ctx, from, to, warehouseId)
	if err != nil {
		return nil, err
	}
	names, err := models.WarehouseNames(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]ExcelExporter, 0, len(records))
	for _, r := range records {
		data = append(data, countExportRow{record: r, warehouseName: names[r.WarehouseId]})
	}
	content, err := renderWorkbook("Inventario", countExportHeadings, data)
	if err != nil {
		return nil, utils.NewPersistenceError("render counts workbook", err)
	}

	wb := &Workbook{Filename: fmt.Sprintf("inventario_%s_a_%s", from, to), Data: content}
	if warehouseId != "" {
		wb.Filename += "_" + warehouseId
	}
	archive(ctx, "conteos", wb)
	wb.Filename += ".xlsx"
	return wb, nil
}

// ExportCrossMatch renders the details of one execution, largest valued variance first.
func ExportCrossMatch(ctx context.Context, executionId int) (*Workbook, error) {
	execution, err := models.GetCrossMatchExecution(ctx, executionId)
	if err != nil {
		return nil, err
	}
	details, err := models.ListCrossMatchDetails(ctx, executionId, "")
	if err != nil {
		return nil, err
	}

	data := make([]ExcelExporter, 0, len(details))
	for _, d := range details {
		data = append(data, crossMatchExportRow{detail: d})
	}
	content, err := renderWorkbook("Cruce", crossMatchExportHeadings, data)
	if err != nil {
		return nil, utils.NewPersistenceError("render cross match workbook", err)
	}

	wb := &Workbook{
		Filename: fmt.Sprintf("cruce_%s_%s_%d", execution.WarehouseId, execution.TakeDate, execution.ID),
		Data:     content,
	}
	archive(ctx, "cruces", wb)
	wb.Filename += ".xlsx"
	return wb, nil
}
