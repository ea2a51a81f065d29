package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
)

// JobDailyOrdersReport builds and stores one day's orders workbook.
const JobDailyOrdersReport = "report.daily_orders"

const dayLayout = "2006-01-02"

// DailyReportPayload names the day to report on, as YYYY-MM-DD.
type DailyReportPayload struct {
	Day string `json:"day"`
}

// DailyReportResult is stored on the completed job.
type DailyReportResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Orders int    `json:"orders"`
}

var reportColumns = []export.Column{
	{Header: "Order #", Width: 4},
	{Header: "Date", Width: 3},
	{Header: "Customer", Width: 4},
	{Header: "Delivery person", Width: 4},
	{Header: "Status", Width: 2},
	{Header: "Items", Width: 1.5, Numeric: true},
	{Header: "Total", Width: 2.5, Numeric: true},
	{Header: "Profit", Width: 2.5, Numeric: true},
}

type ReportService struct {
	orderRepo repositories.OrderRepo
	exporter  *export.Service
	storage   *upload.Service
	now       func() time.Time
}

func NewReportService(orderRepo repositories.OrderRepo, exporter *export.Service, storage *upload.Service) *ReportService {
	return &ReportService{
		orderRepo: orderRepo,
		exporter:  exporter,
		storage:   storage,
		now:       time.Now,
	}
}

// BuildOrdersReport tabulates the orders created in [from, to).
func (s *ReportService) BuildOrdersReport(ctx context.Context, from, to time.Time) (*export.Table, int, error) {
	if !from.Before(to) {
		return nil, 0, ErrInvalidDateRange
	}

	orders, err := s.orderRepo.ListInRange(ctx, from, to)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load orders: %w", err)
	}

	table := &export.Table{
		Title:       "Orders report",
		Subtitle:    fmt.Sprintf("%s to %s", from.Format(dayLayout), to.Add(-time.Nanosecond).Format(dayLayout)),
		GeneratedAt: s.now(),
		Columns:     reportColumns,
		Rows:        make([][]interface{}, 0, len(orders)),
	}

	var total, profit float64
	var items int
	for _, o := range orders {
		customer := ""
		if o.Customer != nil {
			customer = o.Customer.ShopName
		}
		person := ""
		if o.Assignment != nil && o.Assignment.DeliveryPerson != nil {
			person = o.Assignment.DeliveryPerson.Name
		}
		count := 0
		for _, it := range o.Items {
			count += it.Quantity
		}

		table.Rows = append(table.Rows, []interface{}{
			o.OrderNumber,
			o.CreatedAt.Format("2006-01-02 15:04"),
			customer,
			person,
			string(o.Status),
			count,
			o.TotalAmount,
			o.ProfitAmount,
		})
		total += o.TotalAmount
		profit += o.ProfitAmount
		items += count
	}
	table.Totals = []interface{}{
		fmt.Sprintf("%d orders", len(orders)), nil, nil, nil, nil,
		items, models.RoundMoney(total), models.RoundMoney(profit),
	}

	return table, len(orders), nil
}

// RenderOrdersReport builds the report and renders it in format.
func (s *ReportService) RenderOrdersReport(ctx context.Context, from, to time.Time, format export.Format) (*export.Document, error) {
	table, _, err := s.BuildOrdersReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("orders_%s_%s", from.Format("20060102"), to.Add(-time.Nanosecond).Format("20060102"))
	return s.exporter.Render(table, format, name)
}

// StoreDailyReport renders the Excel report for one calendar day and saves
// it under reports/daily/.
func (s *ReportService) StoreDailyReport(ctx context.Context, day time.Time) (*DailyReportResult, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	table, count, err := s.BuildOrdersReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	doc, err := s.exporter.Render(table, export.FormatExcel, "orders_"+from.Format(dayLayout))
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.Save(ctx, "reports/daily/"+doc.Filename, doc.Data, doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	log.Info().Str("day", from.Format(dayLayout)).Int("orders", count).Str("url", obj.URL).Msg("📊 Daily orders report stored")
	return &DailyReportResult{Key: obj.Key, URL: obj.URL, Orders: count}, nil
}

// DailyReportHandler runs JobDailyOrdersReport jobs.
func (s *ReportService) DailyReportHandler() jobs.Handler {
	return jobs.HandlerFunc{
		JobType: JobDailyOrdersReport,
		Fn: func(ctx context.Context, job *jobs.Job) (interface{}, error) {
			var p DailyReportPayload
			if err := job.Decode(&p); err != nil {
				return nil, err
			}
			day, err := time.ParseInLocation(dayLayout, p.Day, time.Local)
			if err != nil {
				return nil, fmt.Errorf("invalid day %q: %w", p.Day, err)
			}
			return s.StoreDailyReport(ctx, day)
		},
	}
}

// EnqueueYesterday queues the daily report for the day before now.
func (s *ReportService) EnqueueYesterday(ctx context.Context, queue *jobs.Service) (*jobs.Job, error) {
	day := s.now().AddDate(0, 0, -1).Format(dayLayout)
	return queue.Enqueue(ctx, JobDailyOrdersReport, DailyReportPayload{Day: day}, jobs.EnqueueOptions{
		Queue:      "reports",
		Priority:   jobs.PriorityLow,
		MaxRetries: 3,
	})
}
