package service

import (
	"bytes"
	"fmt"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Lancamentos"

var exportHeaders = []string{
	"Data", "Descrição", "Tipo", "Categoria", "Cliente/Fornecedor",
	"Parcela", "Valor", "Pago", "Juros", "Status", "Pagamento", "Forma",
}

type ExportService interface {
	Transactions(actor Actor, q TransactionQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	txRepo repository.TransactionRepository
	loc    *time.Location
}

func NewExportService(txRepo repository.TransactionRepository, loc *time.Location) ExportService {
	return &exportService{txRepo: txRepo, loc: loc}
}

// Transactions renders the filtered rows as an XLSX workbook and returns it
// with a file name
func (s *exportService) Transactions(actor Actor, q TransactionQuery) (*bytes.Buffer, string, error) {
	f, err := q.Filter(s.loc)
	if err != nil {
		return nil, "", err
	}
	f.Limit, f.Offset = 0, 0
	rows, err := s.txRepo.FindAll(actor.CompanyID, f)
	if err != nil {
		return nil, "", err
	}

	book := excelize.NewFile()
	defer book.Close()

	index, err := book.NewSheet(exportSheet)
	if err != nil {
		return nil, "", err
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return nil, "", err
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		book.SetCellValue(exportSheet, cell, header)
	}

	for i := range rows {
		t := &rows[i]
		row := i + 2
		book.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), t.Date.Format("02/01/2006"))
		book.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), t.Description)
		book.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), string(t.Kind))
		if t.Category != nil {
			book.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), t.Category.Name)
		}
		book.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), partyName(t))
		if t.IsInstallment() {
			book.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("%d/%d", t.InstallmentNumber, t.InstallmentTotal))
		}
		book.SetCellValue(exportSheet, fmt.Sprintf("G%d", row), t.Amount.InexactFloat64())
		book.SetCellValue(exportSheet, fmt.Sprintf("H%d", row), t.PaidAmount.InexactFloat64())
		book.SetCellValue(exportSheet, fmt.Sprintf("I%d", row), t.Interest.InexactFloat64())
		book.SetCellValue(exportSheet, fmt.Sprintf("J%d", row), string(t.Status))
		if t.PaymentDate != nil {
			book.SetCellValue(exportSheet, fmt.Sprintf("K%d", row), t.PaymentDate.Format("02/01/2006"))
		}
		book.SetCellValue(exportSheet, fmt.Sprintf("L%d", row), t.PaymentMethod)
	}

	if len(rows) > 0 {
		style, err := book.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err == nil {
			book.SetCellStyle(exportSheet, "G2", fmt.Sprintf("I%d", len(rows)+1), style)
		}
	}
	book.SetColWidth(exportSheet, "B", "B", 40)
	book.SetColWidth(exportSheet, "E", "E", 28)

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("lancamentos_%s.xlsx", time.Now().In(s.loc).Format("20060102_150405"))
	return buf, name, nil
}

func partyName(t *model.Transaction) string {
	switch {
	case t.Customer != nil:
		return t.Customer.Name
	case t.Supplier != nil:
		return t.Supplier.Name
	}
	return ""
}

