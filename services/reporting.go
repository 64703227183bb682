package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/apperror"
	"github.com/bazaarbd/bazaar-backend-go/models"
	log "github.com/sirupsen/logrus"
)

const (
	ExportJSON = "json"
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// ReportingService serves the staff order listings, statistics and exports.
type ReportingService struct {
	orders OrderStore
	users  UserStore
	now    func() time.Time
}

func NewReportingService(orders OrderStore, users UserStore) *ReportingService {
	return &ReportingService{orders: orders, users: users, now: time.Now}
}

// OrderQuery is the raw query string of the staff listing endpoints.
type OrderQuery struct {
	Page          string `query:"page"`
	Limit         string `query:"limit"`
	Status        string `query:"status"`
	PaymentStatus string `query:"paymentStatus"`
	PaymentMethod string `query:"paymentMethod"`
	StartDate     string `query:"startDate"`
	EndDate       string `query:"endDate"`
	MinAmount     string `query:"minAmount"`
	MaxAmount     string `query:"maxAmount"`
	Search        string `query:"search"`
	SortBy        string `query:"sortBy"`
	SortOrder     string `query:"sortOrder"`
}

// Filter validates the query. Unparsable paging falls back to defaults;
// unknown enum values and malformed dates or amounts are rejected.
func (q OrderQuery) Filter() (models.OrderFilter, error) {
	f := models.OrderFilter{
		Page:    atoiOr(q.Page, 1),
		Limit:   atoiOr(q.Limit, models.DefaultPageLimit),
		Search:  strings.TrimSpace(q.Search),
		SortBy:  q.SortBy,
		SortAsc: strings.EqualFold(q.SortOrder, "asc"),
	}
	if q.Status != "" && q.Status != "all" {
		f.Status = models.OrderStatus(q.Status)
		if !f.Status.Valid() {
			return f, apperror.New(apperror.InvalidInput, "Invalid order status")
		}
	}
	if q.PaymentStatus != "" {
		f.PaymentStatus = models.PaymentStatus(q.PaymentStatus)
		if !f.PaymentStatus.Valid() {
			return f, apperror.New(apperror.InvalidInput, "Invalid payment status")
		}
	}
	if q.PaymentMethod != "" {
		f.PaymentMethod = models.PaymentMethod(q.PaymentMethod)
		if !f.PaymentMethod.Valid() {
			return f, apperror.New(apperror.InvalidInput, "Invalid payment method")
		}
	}

	var err error
	if f.StartDate, err = parseDateParam("startDate", q.StartDate, false); err != nil {
		return f, err
	}
	if f.EndDate, err = parseDateParam("endDate", q.EndDate, true); err != nil {
		return f, err
	}
	if f.MinAmount, err = parseAmountParam("minAmount", q.MinAmount); err != nil {
		return f, err
	}
	if f.MaxAmount, err = parseAmountParam("maxAmount", q.MaxAmount); err != nil {
		return f, err
	}
	f.Normalize()
	return f, nil
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// parseDateParam accepts RFC3339 or YYYY-MM-DD. A bare end date covers the
// whole day.
func parseDateParam(name, raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.Newf(apperror.InvalidInput, "Invalid %s", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseAmountParam(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Newf(apperror.InvalidInput, "Invalid %s", name)
	}
	return &v, nil
}

// List returns one page of orders with buyer details. Search matches the
// order number or the buyer's name or email, and is part of the query so
// the pagination totals describe the searched set.
func (s *ReportingService) List(ctx context.Context, p models.Principal, f models.OrderFilter) (*models.OrderPage, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	f.Normalize()
	if err := s.resolveSearch(ctx, &f); err != nil {
		return nil, err
	}

	orders, total, err := s.orders.Find(ctx, f)
	if err != nil {
		return nil, storageFailure(err, "list_orders", nil)
	}
	s.attachCustomers(ctx, orders)
	return &models.OrderPage{Orders: orders, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

func (s *ReportingService) resolveSearch(ctx context.Context, f *models.OrderFilter) error {
	if f.Search == "" {
		return nil
	}
	ids, err := s.users.SearchIDs(ctx, f.Search)
	if err != nil {
		return storageFailure(err, "search_users", log.Fields{"search": f.Search})
	}
	f.SearchUserIDs = ids
	return nil
}

func (s *ReportingService) Stats(ctx context.Context, p models.Principal) (*models.OrderStats, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	stats, err := s.orders.Stats(ctx, s.now())
	if err != nil {
		return nil, storageFailure(err, "order_stats", nil)
	}
	return stats, nil
}

type ExportQuery struct {
	Format    string `query:"format"`
	Status    string `query:"status"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

type Export struct {
	Format string
	Rows   []models.ExportRow
}

// Export flattens every matching order, newest first.
func (s *ReportingService) Export(ctx context.Context, p models.Principal, q ExportQuery) (*Export, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	format := strings.ToLower(strings.TrimSpace(q.Format))
	if format == "" {
		format = ExportJSON
	}
	if format != ExportJSON && format != ExportCSV && format != ExportXLSX {
		return nil, apperror.New(apperror.InvalidInput, "Invalid export format. Must be json, csv, or xlsx")
	}
	f, err := OrderQuery{Status: q.Status, StartDate: q.StartDate, EndDate: q.EndDate}.Filter()
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.FindAll(ctx, f)
	if err != nil {
		return nil, storageFailure(err, "export_orders", nil)
	}
	s.attachCustomers(ctx, orders)

	rows := make([]models.ExportRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, exportRow(o))
	}
	log.WithFields(log.Fields{"format": format, "rows": len(rows)}).Info("orders exported")
	return &Export{Format: format, Rows: rows}, nil
}

func exportRow(o models.Order) models.ExportRow {
	row := models.ExportRow{
		OrderNumber:   o.OrderNumber,
		Total:         o.Total,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OrderDate:     o.CreatedAt,
		DeliveredDate: o.DeliveredDate,
	}
	if o.Customer != nil {
		row.CustomerName = o.Customer.Name
		row.CustomerEmail = o.Customer.Email
	}
	items := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, fmt.Sprintf("%s (%d)", item.Name, item.Quantity))
	}
	row.Items = strings.Join(items, "; ")
	return row
}

func (s *ReportingService) attachCustomers(ctx context.Context, orders []models.Order) {
	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	attachCustomers(ctx, s.users, ptrs)
}
