package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/engine"
	"github.com/vk/amnis/internal/frame"
)

// Run executes one session over in, writing every frame to the output
// writer. It returns the error that ended the session, if any; error frames
// do not fail the run.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	plan, err := a.model.Gas.Plan()
	if err != nil {
		return fmt.Errorf("invalid gas configuration: %w", err)
	}

	eng, err := engine.New(plan, a.catalogue, a.engineOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	a.logger.Info("🚀 Starting session...", "functions", a.catalogue.Len())
	out := eng.Handle(ctx, in)
	defer out.Close()

	frames := 0
	for {
		f, ok := out.Next(ctx)
		if !ok {
			break
		}
		if _, err := a.outW.Write(frame.Format(f)); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		frames++
	}

	runErr := out.Wait()
	used := out.Used()
	a.logger.Info("🏁 Session finished.", "frames", frames, "gas_used", used)
	if runErr != nil {
		return fmt.Errorf("session failed: %w", runErr)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// engineOptions layers CLI settings over the loaded model.
func (a *App) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithLogger(a.logger)}

	queueSize := a.model.Session.QueueSize
	if a.config.QueueSize > 0 {
		queueSize = a.config.QueueSize
	}
	if queueSize > 0 {
		opts = append(opts, engine.WithQueueSize(queueSize))
	}

	defaultChannel := a.model.Session.DefaultChannel
	if a.config.DefaultChannel != "" {
		defaultChannel = a.config.DefaultChannel
	}
	if defaultChannel != "" {
		opts = append(opts, engine.WithDefaultChannel(defaultChannel))
	}

	channels := append(append([]string(nil), a.model.Session.Channels...), a.config.Channels...)
	if len(channels) > 0 {
		opts = append(opts, engine.WithChannels(channels...))
	}

	if len(a.model.Variables) > 0 {
		bindings := make([]engine.Binding, len(a.model.Variables))
		for i, v := range a.model.Variables {
			bindings[i] = engine.Binding{Name: v.Name, Value: v.Value}
		}
		opts = append(opts, engine.WithVariables(bindings...))
	}
	return opts
}
