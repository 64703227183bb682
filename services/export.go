package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/pkg/errors"
	"github.com/tealeg/xlsx"
)

var exportHeader = []string{
	"Order Number",
	"Customer Name",
	"Customer Email",
	"Total",
	"Status",
	"Payment Method",
	"Payment Status",
	"Order Date",
	"Delivered Date",
	"Items",
}

func exportRecord(r models.ExportRow) []string {
	delivered := ""
	if r.DeliveredDate != nil {
		delivered = r.DeliveredDate.UTC().Format(time.RFC3339)
	}
	return []string{
		r.OrderNumber,
		r.CustomerName,
		r.CustomerEmail,
		strconv.FormatFloat(r.Total, 'f', 2, 64),
		string(r.Status),
		string(r.PaymentMethod),
		string(r.PaymentStatus),
		r.OrderDate.UTC().Format(time.RFC3339),
		delivered,
		r.Items,
	}
}

func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(exportRecord(r)); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func WriteXLSX(w io.Writer, rows []models.ExportRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return errors.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, title := range exportHeader {
		header.AddCell().SetString(title)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for i, value := range exportRecord(r) {
			cell := row.AddCell()
			if i == 3 {
				cell.SetFloat(r.Total)
				continue
			}
			cell.SetString(value)
		}
	}
	return errors.Wrap(file.Write(w), "write xlsx")
}
