package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.schedSystemMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", func() {
		a.schedModerationDigestTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// schedSystemMonitorTask samples host load into the embedded metrics store.
func (a *Application) schedSystemMonitorTask() {
	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 {
		metrics.Add("system_cpu_percent", percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		metrics.Add("system_mem_percent", vm.UsedPercent)
	}
}

// schedModerationDigestTask logs how the moderation queue looks once an hour
// so an unattended backlog shows up in the logs.
func (a *Application) schedModerationDigestTask() {
	if a.configManager != nil && !a.configManager.GetBool("moderation", "queue_digest_enable") {
		return
	}
	var pending int64
	err := a.gormDB.Model(&domain.FoodProduct{}).
		Where("verification_status = ?", domain.StatusPending).
		Count(&pending).Error
	if err != nil {
		zap.L().Warn("moderation digest query failed", zap.Error(err))
		return
	}
	metrics.Add("moderation_pending", float64(pending))
	zap.L().Info("moderation queue digest", zap.Int64("pending", pending))
}
