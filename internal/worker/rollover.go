package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"guard-roster/internal/dto"
)

// rolloverLockTTL 同一月份的滚动在此时间内只由一个实例执行
const rolloverLockTTL = time.Hour

// RosterGenerator 为全部活跃岗位生成指定月份排班
type RosterGenerator interface {
	GenerateAllActive(ctx context.Context, year, month int) (*dto.GenerateRosterResponse, error)
}

// Locker 跨实例互斥（Redis SETNX）
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// Rollover 月度排班滚动任务：按 cron 表达式预生成下月排班
type Rollover struct {
	gen    RosterGenerator
	locker Locker // 可为 nil（单实例部署）
	loc    *time.Location
	now    func() time.Time
	cron   *cron.Cron
	logger *zap.Logger
}

// NewRollover 创建滚动任务并注册调度
func NewRollover(gen RosterGenerator, locker Locker, spec string, loc *time.Location, logger *zap.Logger) (*Rollover, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Rollover{
		gen:    gen,
		locker: locker,
		loc:    loc,
		now:    time.Now,
		logger: logger.Named("rollover"),
	}
	r.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.logger.Sugar()})),
	)

	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("月度滚动失败", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("注册滚动调度失败 %q: %w", spec, err)
	}
	return r, nil
}

// Start 启动调度（非阻塞）
func (r *Rollover) Start() {
	r.cron.Start()
	r.logger.Info("月度滚动调度已启动", zap.String("location", r.loc.String()))
}

// Stop 停止调度，返回的 context 在运行中的任务结束后关闭
func (r *Rollover) Stop() context.Context {
	return r.cron.Stop()
}

// RunOnce 生成下一个自然月的排班
// 其他实例已持有当月锁时跳过并返回 nil 结果
func (r *Rollover) RunOnce(ctx context.Context) (*dto.GenerateRosterResponse, error) {
	year, month := nextMonth(r.now().In(r.loc))
	lockName := fmt.Sprintf("roster:rollover:%04d-%02d", year, month)

	if r.locker != nil {
		acquired, err := r.locker.TryLock(ctx, lockName, rolloverLockTTL)
		if err != nil {
			// Redis 故障时降级执行，生成本身幂等
			r.logger.Warn("获取滚动锁失败，降级执行", zap.Error(err))
		} else if !acquired {
			r.logger.Info("其他实例正在滚动，跳过", zap.String("lock", lockName))
			return nil, nil
		}
	}

	result, err := r.gen.GenerateAllActive(ctx, year, month)
	if err != nil {
		if r.locker != nil {
			// 失败时释放锁，允许下次重试
			if uerr := r.locker.Unlock(ctx, lockName); uerr != nil {
				r.logger.Warn("释放滚动锁失败", zap.Error(uerr))
			}
		}
		return nil, fmt.Errorf("生成 %04d-%02d 排班失败: %w", year, month, err)
	}

	r.logger.Info("月度滚动完成",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("posts", result.PostCount),
		zap.Int64("created", result.Created),
		zap.Strings("failed", result.Failed),
	)
	return result, nil
}

func nextMonth(t time.Time) (int, int) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return first.Year(), int(first.Month())
}

// cronLogger 将 cron 内部日志转发到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
