package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestOrderQuery_Filter(t *testing.T) {
	f, err := OrderQuery{}.Filter()
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, models.DefaultPageLimit, f.Limit)
	assert.Equal(t, models.DefaultSortField, f.SortBy)
	assert.False(t, f.SortAsc)

	f, err = OrderQuery{
		Page:          "3",
		Limit:         "500",
		Status:        "shipped",
		PaymentStatus: "paid",
		PaymentMethod: "nagad",
		StartDate:     "2024-01-01",
		EndDate:       "2024-01-31",
		MinAmount:     "10.5",
		MaxAmount:     "99",
		Search:        "  karim ",
		SortBy:        "total",
		SortOrder:     "ASC",
	}.Filter()
	require.NoError(t, err)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, models.MaxPageLimit, f.Limit)
	assert.Equal(t, models.OrderStatusShipped, f.Status)
	assert.Equal(t, models.PaymentStatusPaid, f.PaymentStatus)
	assert.Equal(t, models.PaymentMethodNagad, f.PaymentMethod)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *f.EndDate)
	assert.Equal(t, 10.5, *f.MinAmount)
	assert.Equal(t, 99.0, *f.MaxAmount)
	assert.Equal(t, "karim", f.Search)
	assert.Equal(t, "total", f.SortBy)
	assert.True(t, f.SortAsc)

	f, err = OrderQuery{Page: "x", SortBy: "password", Status: "all"}.Filter()
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, models.DefaultSortField, f.SortBy)
	assert.Empty(t, f.Status)

	for _, q := range []OrderQuery{
		{Status: "lost"},
		{PaymentStatus: "maybe"},
		{PaymentMethod: "cheque"},
		{StartDate: "01/02/2024"},
		{MinAmount: "ten"},
	} {
		_, err := q.Filter()
		assertKind(t, err, apperror.InvalidInput)
	}
}

func TestReportingService_ListSearch(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	karim := env.customer(t, "Karim Hossain", "karim@example.com")
	rahim := env.customer(t, "Rahim", "rahim@example.com")
	for i := 0; i < 3; i++ {
		env.placeOrder(t, karim)
	}
	rahimOrder := env.placeOrder(t, rahim)
	ctx := context.Background()

	page, err := env.reports.List(ctx, admin, models.OrderFilter{Search: "HOSSAIN", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.EqualValues(t, 3, page.Pagination.TotalOrders)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	for _, o := range page.Orders {
		require.NotNil(t, o.Customer)
		assert.Equal(t, "Karim Hossain", o.Customer.Name)
	}

	page, err = env.reports.List(ctx, admin, models.OrderFilter{Search: rahimOrder.OrderNumber})
	require.NoError(t, err)
	require.NotEmpty(t, page.Orders)
	assert.Equal(t, rahimOrder.OrderNumber, page.Orders[0].OrderNumber)

	_, err = env.reports.List(ctx, karim, models.OrderFilter{})
	assertKind(t, err, apperror.Unauthorized)
}

func TestReportingService_Stats(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	buyer := env.customer(t, "Karim", "karim@example.com")
	ctx := context.Background()

	delivered := env.placeOrder(t, buyer)
	env.placeOrder(t, buyer)
	cancelled := env.placeOrder(t, buyer)
	_, err := env.orders.UpdateStatus(ctx, admin, delivered.ID.Hex(), "delivered", "")
	require.NoError(t, err)
	_, err = env.orders.Cancel(ctx, admin, cancelled.ID.Hex(), "")
	require.NoError(t, err)

	stats, err := env.reports.Stats(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.PendingOrders)
	assert.EqualValues(t, 1, stats.DeliveredOrders)
	assert.EqualValues(t, 1, stats.CancelledOrders)
	assert.Equal(t, 160.0, stats.TotalRevenue)
	assert.Equal(t, 160.0, stats.MonthlyRevenue)
	require.Len(t, stats.DailyRevenue, 1)
	assert.Equal(t, 160.0, stats.DailyRevenue[0].Total)
	require.Len(t, stats.PaymentMethodStats, 1)
	assert.Equal(t, models.PaymentMethodStat{Method: models.PaymentMethodBkash, Count: 3, Total: 480}, stats.PaymentMethodStats[0])
}

func TestReportingService_Export(t *testing.T) {
	env := newTestEnv(t)
	admin := env.admin(t)
	buyer := env.customer(t, "Karim", "karim@example.com")
	order := env.placeOrder(t, buyer)
	ctx := context.Background()

	_, err := env.reports.Export(ctx, admin, ExportQuery{Format: "pdf"})
	assertKind(t, err, apperror.InvalidInput)

	export, err := env.reports.Export(ctx, admin, ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, ExportJSON, export.Format)
	require.Len(t, export.Rows, 1)
	row := export.Rows[0]
	assert.Equal(t, order.OrderNumber, row.OrderNumber)
	assert.Equal(t, "Karim", row.CustomerName)
	assert.Equal(t, "karim@example.com", row.CustomerEmail)
	assert.Equal(t, "Panjabi (1)", row.Items)

	export, err = env.reports.Export(ctx, admin, ExportQuery{Format: "csv", Status: "delivered"})
	require.NoError(t, err)
	assert.Empty(t, export.Rows)
}

func TestWriteCSV(t *testing.T) {
	delivered := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	rows := []models.ExportRow{{
		OrderNumber:   "ORD-20240517-001",
		CustomerName:  "Karim, Jr.",
		CustomerEmail: "karim@example.com",
		Total:         310,
		Status:        models.OrderStatusDelivered,
		PaymentMethod: models.PaymentMethodBkash,
		PaymentStatus: models.PaymentStatusPaid,
		OrderDate:     time.Date(2024, 5, 17, 8, 0, 0, 0, time.UTC),
		DeliveredDate: &delivered,
		Items:         "Panjabi (2); Lungi (1)",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{
		"ORD-20240517-001", "Karim, Jr.", "karim@example.com", "310.00", "delivered",
		"bkash", "paid", "2024-05-17T08:00:00Z", "2024-05-20T08:00:00Z", "Panjabi (2); Lungi (1)",
	}, records[1])
}

func TestWriteXLSX(t *testing.T) {
	rows := []models.ExportRow{{OrderNumber: "ORD-20240517-001", Total: 99.5, Items: "Panjabi (1)"}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Order Number", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "ORD-20240517-001", sheet.Rows[1].Cells[0].String())
	total, err := sheet.Rows[1].Cells[3].Float()
	require.NoError(t, err)
	assert.Equal(t, 99.5, total)
}
