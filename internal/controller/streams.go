package controller

import (
	"context"
	"log/slog"

	"github.com/micro-nova/acodec-go/internal/codec"
	"github.com/micro-nova/acodec-go/internal/models"
)

func parseDirection(name string) (codec.Direction, *models.AppError) {
	dir, err := codec.ParseDirection(name)
	if err != nil {
		return 0, models.ErrNotFound(err.Error())
	}
	return dir, nil
}

// OpenStream powers the path for a starting stream.
func (c *Controller) OpenStream(ctx context.Context, name string) (models.Status, *models.AppError) {
	dir, appErr := parseDirection(name)
	if appErr != nil {
		return models.Status{}, appErr
	}
	return c.run(func() error { return c.codec.OnStreamOpen(ctx, dir) })
}

// CloseStream powers down the path of a stopped stream.
func (c *Controller) CloseStream(ctx context.Context, name string) (models.Status, *models.AppError) {
	dir, appErr := parseDirection(name)
	if appErr != nil {
		return models.Status{}, appErr
	}
	return c.run(func() error { return c.codec.OnStreamClose(ctx, dir) })
}

// Mute drives the digital mute of a stream direction.
func (c *Controller) Mute(ctx context.Context, name string, mute bool) (models.Status, *models.AppError) {
	dir, appErr := parseDirection(name)
	if appErr != nil {
		return models.Status{}, appErr
	}
	return c.run(func() error { return c.codec.OnMute(ctx, dir, mute) })
}

// SetALC enables or disables the capture ALC.
func (c *Controller) SetALC(ctx context.Context, enable bool) (models.Status, *models.AppError) {
	return c.run(func() error {
		if enable {
			return c.codec.EnableALC(ctx)
		}
		return c.codec.DisableALC(ctx)
	})
}

// Recover re-initialises the codec after a register fault.
func (c *Controller) Recover(ctx context.Context) (models.Status, *models.AppError) {
	return c.run(func() error { return c.codec.Recover(ctx) })
}

// InjectInterrupt feeds a jack-detect interrupt to the detector.
func (c *Controller) InjectInterrupt() *models.AppError {
	c.mu.Lock()
	det := c.det
	c.mu.Unlock()
	if det == nil {
		return models.ErrConflict("jack detection is not configured")
	}
	det.HandleInterrupt()
	return nil
}

// Reporter returns a jack reporter that publishes the report and a fresh
// status. It does not take the controller lock, so it is safe to call from
// the detector while a request is running.
func (c *Controller) Reporter() codec.Reporter {
	return codec.ReporterFunc(func(_ context.Context, plugged bool, jack codec.JackType) {
		slog.Info("controller: jack report", "plugged", plugged, "jack", jack)
		c.bus.PublishJack(models.JackEvent{Plugged: plugged, Jack: jack.String()})
		c.publish()
	})
}
