package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/kafka"
)

func newTailCommand(ctx *commandContext) *cobra.Command {
	var opts kafka.TailerOptions
	var limit int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events published to the configured topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger(ctx.logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			cfg, _ := config.LoadOrDefault(ctx.configFile, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			runCtx, cancel := context.WithCancel(runCtx)
			defer cancel()

			printer := newRecordPrinter(cmd.OutOrStdout(), limit, cancel)
			tailer, err := kafka.NewTailer(cfg, opts, printer.print, logger)
			if err != nil {
				return err
			}
			return tailer.Run(runCtx)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "kafgeyser-tail", "Consumer group id")
	cmd.Flags().BoolVar(&opts.FromBeginning, "from-beginning", false, "Start from the oldest offset")
	cmd.Flags().IntVar(&limit, "max", 0, "Stop after this many records (0 runs until interrupted)")
	return cmd
}

// recordPrinter writes one line per record and stops the tail after limit.
type recordPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	limit int
	seen  int
	done  context.CancelFunc
}

func newRecordPrinter(out io.Writer, limit int, done context.CancelFunc) *recordPrinter {
	return &recordPrinter{out: out, limit: limit, done: done}
}

func (p *recordPrinter) print(r kafka.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.limit > 0 && p.seen >= p.limit {
		return
	}
	p.seen++

	payload, err := json.Marshal(r.Event)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", r.Event))
	}
	fmt.Fprintf(p.out, "%d\t%d/%d\t%s\t%s\n", r.Key.Slot(), r.Partition, r.Offset, r.Event.Kind(), payload)

	if p.limit > 0 && p.seen >= p.limit {
		p.done()
	}
}
