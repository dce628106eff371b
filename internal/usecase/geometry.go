package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// Placement is the target vertical geometry of one window.
type Placement struct {
	Y      float64
	Height float64
}

// PlanPlacement computes where a window goes when offset pixels at the top of
// its display are reserved. A window already sitting at or below the reserved
// band keeps its y and only has its height trimmed to the display bottom.
func PlanPlacement(window, display domain.Frame, offset float64) Placement {
	relY := window.Y - display.Y
	if relY >= offset {
		return Placement{Y: window.Y, Height: display.Height - relY}
	}
	return Placement{Y: display.Y + offset, Height: display.Height - offset}
}

// FallbackRows returns the grid row count used when absolute placement fails.
// The window takes every row but the first.
func FallbackRows(displayHeight, offset float64) int {
	if offset <= 0 {
		return 2
	}
	rows := int(displayHeight / offset)
	if rows < 2 {
		rows = 2
	}
	return rows
}

// GeometryPlanner moves target windows out of the band reserved for the tab bar.
type GeometryPlanner struct {
	controller domain.WindowController
	margin     float64
	logger     *zap.Logger
}

// NewGeometryPlanner creates a planner that adds margin below the reserved band.
func NewGeometryPlanner(controller domain.WindowController, margin float64, logger *zap.Logger) *GeometryPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeometryPlanner{controller: controller, margin: margin, logger: logger}
}

// Offset returns the distance from the display top a window is moved to.
func (p *GeometryPlanner) Offset(reserved float64) float64 {
	return reserved + p.margin
}

// Apply places one window. Absolute move and resize are tried first, then a
// grid placement. Failure of both is logged and reported in the result, never
// returned as an error.
func (p *GeometryPlanner) Apply(ctx context.Context, id string, handle int, window, display domain.Frame, reserved float64) domain.ResizeResult {
	offset := p.Offset(reserved)
	plan := PlanPlacement(window, display, offset)
	result := domain.ResizeResult{WindowID: id, Y: plan.Y, Height: plan.Height}

	if plan.Height <= 0 {
		result.Error = fmt.Sprintf("reserved height %.0f leaves no room on display", offset)
		p.logger.Warn("window does not fit below tab bar",
			zap.String("stable_id", id),
			zap.Int("window_id", handle),
			zap.Float64("offset", offset))
		return result
	}

	primaryErr := p.controller.Move(ctx, handle, window.X, plan.Y)
	if primaryErr == nil {
		primaryErr = p.controller.Resize(ctx, handle, window.Width, plan.Height)
	}
	if primaryErr == nil {
		return result
	}

	p.logger.Debug("absolute placement failed, trying grid",
		zap.String("stable_id", id),
		zap.Int("window_id", handle),
		zap.Error(primaryErr))

	rows := FallbackRows(display.Height, offset)
	result.UsedFallback = true
	if err := p.controller.Grid(ctx, handle, rows, 1, 0, 1, 1, rows-1); err != nil {
		result.Error = err.Error()
		p.logger.Warn("window resize failed",
			zap.String("stable_id", id),
			zap.Int("window_id", handle),
			zap.Error(err))
	}
	return result
}
