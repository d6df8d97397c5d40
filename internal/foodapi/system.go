package foodapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cast"

	"github.com/kalorio/kalorio/internal/webserver"
	"github.com/kalorio/kalorio/pkg/metrics"
)

func registerSystemRoutes() {
	webserver.ModGET("/system/status", systemStatus)
	webserver.ModGET("/system/metrics", systemMetrics)
}

func systemStatus(c echo.Context) error {
	status := map[string]interface{}{}
	if info, err := host.Info(); err == nil {
		status["hostname"] = info.Hostname
		status["os"] = info.Platform
		status["uptime"] = info.Uptime
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["mem_percent"] = vm.UsedPercent
		status["mem_total"] = vm.Total
	}
	return c.JSON(http.StatusOK, status)
}

// systemMetrics returns raw counter samples from the embedded time-series
// store, e.g. ?name=resolve_external_hit&hours=24.
func systemMetrics(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Metric name is required", nil)
	}
	hours := cast.ToInt(c.QueryParam("hours"))
	if hours <= 0 || hours > 24*30 {
		hours = 24
	}

	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)
	points := metrics.Series(name, start, end)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":   name,
		"points": points,
		"sum":    metrics.RangeSum(name, start, end),
	})
}
