// Package controller serialises operator requests onto the codec, keeps the
// persisted settings in step with it and publishes every state change.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/micro-nova/acodec-go/internal/codec"
	"github.com/micro-nova/acodec-go/internal/config"
	"github.com/micro-nova/acodec-go/internal/events"
	"github.com/micro-nova/acodec-go/internal/models"
)

// Controller is the single entry point for operator and stream requests.
// Settings mutations go through apply, which validates, drives the codec,
// saves and publishes.
type Controller struct {
	mu       sync.Mutex
	settings models.Settings
	codec    *codec.Codec
	det      *codec.Detector
	store    config.Store
	bus      *events.Bus
	info     models.Info
}

// New loads the persisted settings and pushes them into the codec. The codec
// is not attached; call Start for that.
func New(c *codec.Codec, store config.Store, bus *events.Bus, info models.Info) (*Controller, error) {
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("controller: load settings: %w", err)
	}
	ctrl := &Controller{
		codec: c,
		store: store,
		bus:   bus,
		info:  info,
	}
	if err := ctrl.push(context.Background(), *st, allFields); err != nil {
		slog.Warn("controller: stored settings rejected, using defaults", "err", err)
		def := models.DefaultSettings()
		if err := ctrl.push(context.Background(), def, allFields); err != nil {
			return nil, fmt.Errorf("controller: apply default settings: %w", err)
		}
		st = &def
	}
	ctrl.settings = *st
	return ctrl, nil
}

// SetDetector records the jack detector so interrupts can be injected over
// the API.
func (c *Controller) SetDetector(d *codec.Detector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.det = d
}

// Start attaches the codec and publishes the resulting status.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.codec.Attach(ctx)
	c.publish()
	return err
}

// Stop detaches the codec and flushes pending settings.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.codec.Detach(ctx)
	if ferr := c.store.Flush(); ferr != nil {
		err = errors.Join(err, fmt.Errorf("controller: flush settings: %w", ferr))
	}
	c.publish()
	return err
}

// Settings returns the current operator settings.
func (c *Controller) Settings() models.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.DeepCopy()
}

// Status returns the operator view of the codec.
func (c *Controller) Status() models.Status {
	return c.status()
}

func (c *Controller) status() models.Status {
	st := c.codec.Status()
	out := models.Status{
		Output:       st.Output.String(),
		Activity:     st.Activity.String(),
		DAC:          st.DAC.String(),
		Group:        st.Group,
		Group0LineIn: st.Group0LineIn,
		ZeroCross:    st.ZeroCross,
		HPPlugged:    st.HPPlugged,
		Capturing:    st.Capturing,
		Muted:        st.Muted,
		ALC:          st.ALC,
		MicBias:      int(st.MicBias),
		MicBiasMV:    st.MicBias.Millivolts(),
		Attached:     st.Attached,
		Info:         c.info,
	}
	if st.Fault != nil {
		out.Fault = st.Fault.Error()
	}
	return out
}

func (c *Controller) publish() {
	c.bus.PublishStatus(c.status())
}

// apply is the core mutation primitive. It:
//  1. Acquires the lock
//  2. Copies the current settings
//  3. Calls fn to modify the copy and drive the codec (fn may return an error to abort)
//  4. If fn succeeds: stores the settings and schedules a save
//
// The status is published either way, since a failed sequence may still
// have changed the codec.
func (c *Controller) apply(fn func(*models.Settings) error) (models.Status, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.settings.DeepCopy()
	err := fn(&next)
	defer c.publish()
	if err != nil {
		return models.Status{}, toAppError(err)
	}
	c.settings = next
	_ = c.store.Save(&c.settings) // debounced, async
	return c.status(), nil
}

// run drives the codec without touching settings.
func (c *Controller) run(fn func() error) (models.Status, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.publish()
	if err := fn(); err != nil {
		return models.Status{}, toAppError(err)
	}
	return c.status(), nil
}

// fields selects which settings push writes into the codec.
type fields struct {
	output, group, lineIn, zeroCross, micBias bool
}

var allFields = fields{output: true, group: true, lineIn: true, zeroCross: true, micBias: true}

// changed returns the fields that differ between prev and next.
func changed(prev, next models.Settings) fields {
	return fields{
		output:    prev.Output != next.Output,
		group:     prev.Group != next.Group,
		lineIn:    prev.Group0LineIn != next.Group0LineIn,
		zeroCross: prev.ZeroCross != next.ZeroCross,
		micBias:   prev.MicBias != next.MicBias,
	}
}

// push validates s and writes the selected fields into the codec. Fields
// not selected are left alone, so a routing change made by the jack detector
// survives unrelated settings updates. The register-touching steps run first;
// if they fail the codec configuration is unchanged apart from a micbias
// level already applied, which is restored best effort.
func (c *Controller) push(ctx context.Context, s models.Settings, f fields) error {
	if err := s.Validate(); err != nil {
		return err
	}
	out, err := codec.ParseOutput(s.Output)
	if err != nil {
		return fieldError("output", err)
	}

	prevBias := c.codec.MicBias()
	bias := codec.MicBias(s.MicBias)
	biasApplied := false
	if f.micBias && bias != prevBias {
		if err := c.codec.SetMicBias(ctx, bias); err != nil {
			return fieldError("micbias", err)
		}
		biasApplied = true
	}
	if f.output {
		if err := c.codec.SwitchOutput(ctx, out); err != nil {
			if biasApplied {
				if rerr := c.codec.SetMicBias(ctx, prevBias); rerr != nil {
					slog.Warn("controller: micbias restore failed", "err", rerr)
				}
			}
			return fieldError("output", err)
		}
	}

	if f.group {
		if err := c.codec.SetGroup(s.Group); err != nil {
			return fieldError("group", err)
		}
	}
	if f.lineIn {
		c.codec.SetGroup0LineIn(s.Group0LineIn)
	}
	if f.zeroCross {
		c.codec.SetZeroCross(s.ZeroCross)
	}
	return nil
}

// toAppError maps codec errors onto API errors.
func toAppError(err error) *models.AppError {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, codec.ErrInvalidArgument) {
		return models.ErrBadRequest(err.Error())
	}
	var seqErr *codec.SeqError
	if errors.As(err, &seqErr) {
		return &models.AppError{
			Code:    "HARDWARE",
			Message: err.Error(),
			Status:  500,
		}
	}
	return models.ErrInternal(err.Error())
}

func fieldError(field string, err error) error {
	if errors.Is(err, codec.ErrInvalidArgument) {
		return models.ErrInvalidField(field, err.Error())
	}
	return err
}
