package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"mining-etl/common/database"
	"mining-etl/internal/config"
)

// check 一项 warehouse 检查，查询返回单个计数
type check struct {
	title string
	query string
	// 计数大于 0 时提示
	warnIfNonZero bool
}

var checks = []check{
	{title: "daily_production_metrics rows", query: `SELECT COUNT(*) FROM daily_production_metrics`},
	{title: "production_anomalies rows", query: `SELECT COUNT(*) FROM production_anomalies`},
	{title: "equipment_utilization rows", query: `SELECT COUNT(*) FROM equipment_utilization`},
	{title: "production_forecast rows", query: `SELECT COUNT(*) FROM production_forecast`},
	{
		title:         "days with negative production",
		query:         `SELECT COUNT(*) FROM daily_production_metrics WHERE total_production_daily < 0`,
		warnIfNonZero: true,
	},
	{
		title:         "utilization outside 0-100",
		query:         `SELECT COUNT(*) FROM equipment_utilization WHERE equipment_utilization < 0 OR equipment_utilization > 100`,
		warnIfNonZero: true,
	},
	{
		title: "days without equipment data",
		query: `SELECT COUNT(*) FROM daily_production_metrics WHERE equipment_utilization IS NULL`,
	},
	{
		title: "days with NULL fuel_efficiency",
		query: `SELECT COUNT(*) FROM daily_production_metrics WHERE fuel_efficiency IS NULL`,
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if warnings := runChecks(ctx, db, os.Stdout); warnings > 0 {
		fmt.Printf("\n%d check(s) need attention\n", warnings)
	}
}

// runChecks 依次执行检查并输出结果，返回需要关注的检查数
// 表不存在等错误只输出，不中断
func runChecks(ctx context.Context, db *sql.DB, out io.Writer) int {
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "Warehouse checks")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "%-40s %s\n", "check", "count")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	warnings := 0
	for _, c := range checks {
		var count int64
		if err := db.QueryRowContext(ctx, c.query).Scan(&count); err != nil {
			fmt.Fprintf(out, "%-40s ERROR: %v\n", c.title, err)
			warnings++
			continue
		}

		mark := ""
		if c.warnIfNonZero && count > 0 {
			mark = "  <- check data"
			warnings++
		}
		fmt.Fprintf(out, "%-40s %d%s\n", c.title, count, mark)
	}
	return warnings
}
