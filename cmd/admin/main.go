package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/app"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/utils"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  bootstrap   create the default admin account if it does not exist")
	fmt.Fprintln(os.Stderr, "  stats       print dashboard statistics")
	fmt.Fprintln(os.Stderr, "  jobs        print background job counts by status")
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to database")
	}
	defer db.Close()

	switch cmd := flag.Arg(0); cmd {
	case "bootstrap":
		err = bootstrap(ctx, cfg, db)
	case "stats":
		err = printStats(ctx, cfg, db)
	case "jobs":
		err = printJobs(ctx, db)
	default:
		usage()
		log.Fatal().Str("command", cmd).Msg("❌ Unknown command")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Command failed")
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, db *database.DB) error {
	authService := auth.NewService(db.GORM, cfg.JWTSecret, auth.NewMemoryBlocklist())
	seed := app.AdminSeed(cfg)

	created, err := authService.EnsureDefaultAdmin(ctx, seed)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", seed.Email).Msg("✅ Default admin created")
	} else {
		log.Info().Str("email", seed.Email).Msg("ℹ️ Admin already exists, nothing to do")
	}
	return nil
}

func printStats(ctx context.Context, cfg *config.Config, db *database.DB) error {
	svc := services.NewDashboardService(repositories.NewDashboardRepo(db.GORM), cfg.LowStockThreshold)
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Products", strconv.FormatInt(stats.TotalProducts, 10)},
		{"Customers", strconv.FormatInt(stats.TotalCustomers, 10)},
		{"Active delivery persons", strconv.FormatInt(stats.ActiveDeliveryPersons, 10)},
		{"Orders", strconv.FormatInt(stats.TotalOrders, 10)},
		{"Revenue", fmt.Sprintf("%.2f", stats.TotalRevenue)},
		{"Profit", fmt.Sprintf("%.2f", stats.TotalProfit)},
		{fmt.Sprintf("Low stock (<= %d)", stats.LowStockThreshold), strconv.FormatInt(stats.LowStockProducts, 10)},
	}
	for _, status := range models.AllStatuses {
		rows = append(rows, []string{"Orders " + string(status), strconv.FormatInt(stats.OrdersByStatus[status], 10)})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func printJobs(ctx context.Context, db *database.DB) error {
	counts, err := jobs.NewService(db.GORM, nil).Stats(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Status", "Jobs")
	for _, status := range []jobs.JobStatus{
		jobs.StatusPending, jobs.StatusProcessing, jobs.StatusRetrying,
		jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusCancelled,
	} {
		if err := table.Append([]string{string(status), strconv.FormatInt(counts[status], 10)}); err != nil {
			return err
		}
	}
	return table.Render()
}
