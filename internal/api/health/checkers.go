package health

import (
	"context"
	"fmt"
	"time"
)

// SchedulerChecker reports whether the refresh scheduler loop is running.
type SchedulerChecker struct {
	isRunning func() bool
}

// NewSchedulerChecker creates a new scheduler health checker.
func NewSchedulerChecker(isRunning func() bool) *SchedulerChecker {
	return &SchedulerChecker{isRunning: isRunning}
}

// Name returns the checker name.
func (c *SchedulerChecker) Name() string {
	return "scheduler"
}

// Check verifies the scheduler is running.
func (c *SchedulerChecker) Check(ctx context.Context) error {
	if c.isRunning == nil || !c.isRunning() {
		return fmt.Errorf("refresh scheduler not running")
	}
	return nil
}

// FreshnessChecker fails when the dashboard data has not been refreshed
// within maxAge.
type FreshnessChecker struct {
	lastUpdated func() time.Time
	now         func() time.Time
	maxAge      time.Duration
}

// NewFreshnessChecker creates a checker over lastUpdated. now defaults to time.Now.
func NewFreshnessChecker(lastUpdated, now func() time.Time, maxAge time.Duration) *FreshnessChecker {
	if now == nil {
		now = time.Now
	}
	return &FreshnessChecker{lastUpdated: lastUpdated, now: now, maxAge: maxAge}
}

// Name returns the checker name.
func (c *FreshnessChecker) Name() string {
	return "freshness"
}

// Check verifies the last refresh is recent enough.
func (c *FreshnessChecker) Check(ctx context.Context) error {
	if c.lastUpdated == nil {
		return fmt.Errorf("no refresh source")
	}
	age := c.now().Sub(c.lastUpdated())
	if age > c.maxAge {
		return fmt.Errorf("data last refreshed %s ago (max %s)", age.Round(time.Second), c.maxAge)
	}
	return nil
}
