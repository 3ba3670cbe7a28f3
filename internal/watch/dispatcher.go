package watch

import (
	"context"
	"errors"
	"time"

	"reportship/internal/clock"
	"reportship/internal/model"
	"reportship/internal/pipeline"

	"go.uber.org/zap"
)

var ErrInvalidName = errors.New("created file has an invalid file name")

type Transferer interface {
	Transfer(ctx context.Context, req model.TransferRequest) model.TransferResult
}

type Recorder interface {
	RecordResult(result model.TransferResult)
	RecordRejected(event model.FileEvent)
	RecordDelete(event model.FileEvent)
}

type Options struct {
	SettleDelay time.Duration
}

// Dispatcher handles one event at a time, including the network transfer it
// triggers, before taking the next one.
type Dispatcher struct {
	filter   *pipeline.NameFilter
	zone     *clock.Zone
	transfer Transferer
	recorder Recorder
	opts     Options
	log      *zap.Logger
}

func NewDispatcher(filter *pipeline.NameFilter, zone *clock.Zone, transfer Transferer, recorder Recorder, opts Options, log *zap.Logger) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Dispatcher{
		filter:   filter,
		zone:     zone,
		transfer: transfer,
		recorder: recorder,
		opts:     opts,
		log:      log,
	}
}

// Run consumes events until ctx is cancelled or the channel closes. A
// transfer already in progress is allowed to finish.
func (d *Dispatcher) Run(ctx context.Context, events <-chan model.FileEvent) {
	d.log.Info("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopping")
			return

		case event, ok := <-events:
			if !ok {
				d.log.Info("event source closed")
				return
			}

			d.Handle(ctx, event)
		}
	}
}

func (d *Dispatcher) Handle(ctx context.Context, event model.FileEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while handling event",
				zap.String("path", event.Path),
				zap.Any("panic", r))
		}
	}()

	switch event.Type {
	case model.EventCreate:
		d.handleCreate(ctx, event)
	case model.EventRemove:
		d.log.Info("file deletion detected",
			zap.String("path", event.Path))
		d.recorder.RecordDelete(event)
	}
}

func (d *Dispatcher) handleCreate(ctx context.Context, event model.FileEvent) {
	if event.IsDir {
		d.log.Debug("directory created",
			zap.String("path", event.Path))
		return
	}

	if !d.filter.Accepts(event.Name) {
		d.log.Error(ErrInvalidName.Error(),
			zap.String("path", event.Path))
		d.recorder.RecordRejected(event)
		return
	}

	d.log.Info("filename is valid",
		zap.String("path", event.Path))

	if d.opts.SettleDelay > 0 {
		time.Sleep(d.opts.SettleDelay)
	}

	req := model.TransferRequest{
		LocalPath:  event.Path,
		ReportName: ReportName(d.zone, event),
	}

	d.log.Info("initiating transfer",
		zap.String("local", req.LocalPath),
		zap.String("report", req.ReportName))

	result := d.transfer.Transfer(context.WithoutCancel(ctx), req)
	d.recorder.RecordResult(result)
}

type nopRecorder struct{}

func (nopRecorder) RecordResult(model.TransferResult) {}
func (nopRecorder) RecordRejected(model.FileEvent)    {}
func (nopRecorder) RecordDelete(model.FileEvent)      {}
