package controller

import (
	"context"
	"log/slog"

	"github.com/micro-nova/acodec-go/internal/codec"
	"github.com/micro-nova/acodec-go/internal/models"
)

// UpdateSettings applies a partial settings update.
func (c *Controller) UpdateSettings(ctx context.Context, upd models.SettingsUpdate) (models.Status, *models.AppError) {
	if upd.Empty() {
		return c.Status(), nil
	}
	return c.apply(func(s *models.Settings) error {
		next := upd.Apply(*s)
		f := changed(*s, next)
		// A named output applies even when it matches the stored value; the
		// jack detector may have moved the codec away from it.
		f.output = upd.Output != nil
		f.micBias = upd.MicBias != nil
		if err := c.push(ctx, next, f); err != nil {
			return err
		}
		*s = next
		return nil
	})
}

// ReplaceSettings applies a complete settings document, as read from an
// externally edited settings file.
func (c *Controller) ReplaceSettings(ctx context.Context, next models.Settings) (models.Status, *models.AppError) {
	return c.apply(func(s *models.Settings) error {
		if err := c.push(ctx, next, changed(*s, next)); err != nil {
			return err
		}
		*s = next
		return nil
	})
}

// WatchHandler returns a callback for config.JSONStore.Watch that applies
// external edits and logs rejected ones.
func (c *Controller) WatchHandler(ctx context.Context) func(models.Settings) {
	return func(s models.Settings) {
		if _, appErr := c.ReplaceSettings(ctx, s); appErr != nil {
			slog.Warn("controller: rejected edited settings", "field", appErr.Field, "err", appErr.Message)
		}
	}
}

// Output returns the current routing target.
func (c *Controller) Output() string {
	return c.codec.Output().String()
}

// SetOutput switches the DAC routing target.
func (c *Controller) SetOutput(ctx context.Context, name string) (models.Status, *models.AppError) {
	return c.apply(func(s *models.Settings) error {
		out, err := codec.ParseOutput(name)
		if err != nil {
			return fieldError("output", err)
		}
		if err := c.codec.SwitchOutput(ctx, out); err != nil {
			return err
		}
		s.Output = out.String()
		return nil
	})
}

// SetMicBias changes the microphone bias level.
func (c *Controller) SetMicBias(ctx context.Context, level int) (models.Status, *models.AppError) {
	return c.apply(func(s *models.Settings) error {
		if err := c.codec.SetMicBias(ctx, codec.MicBias(level)); err != nil {
			return fieldError("level", err)
		}
		s.MicBias = level
		return nil
	})
}
