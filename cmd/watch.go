package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/jsphweid/degreec/compile"
	"github.com/jsphweid/degreec/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	watchOut      string
	watchInterval time.Duration
	watchDelay    time.Duration
)

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "output directory (default $DEGREEC_OUT_PATH or ./out)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 250*time.Millisecond, "how often to check the source")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 300*time.Millisecond, "quiet period before recompiling")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file.dn>",
	Short: "Recompiles a source whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := util.EnsureOutputDir(watchOut)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return Watch(ctx, args[0], dir, watchInterval, watchDelay, func(out string, err error) {
			if err != nil {
				log.WithField("file", args[0]).Error(err)
				return
			}
			log.WithField("out", out).Info("recompiled")
		})
	},
}

// Watch compiles path into dir now and again each time its modification time
// or size changes, once changes have settled for delay. Each result is
// passed to done. It returns when ctx is cancelled.
func Watch(ctx context.Context, path, dir string, interval, delay time.Duration, done func(out string, err error)) error {
	last, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "could not watch source")
	}

	recompile := func() {
		if ctx.Err() != nil {
			return
		}
		done(recompileTo(path, dir))
	}
	debounced := debounce.New(delay)
	debounced(recompile)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				log.WithField("file", path).Debugf("stat failed: %v", err)
				continue
			}
			if info.ModTime().Equal(last.ModTime()) && info.Size() == last.Size() {
				continue
			}
			last = info
			log.WithField("file", path).Debug("changed")
			debounced(recompile)
		}
	}
}

// recompileTo writes through a temporary file so readers never see a partial
// result.
func recompileTo(path, dir string) (string, error) {
	res, err := compile.CompileFile(path)
	if err != nil {
		if res != nil {
			for _, d := range res.Diagnostics {
				log.WithField("file", path).Warnf("%d:%d: %s", d.Line, d.Column, d.Message)
			}
		}
		return "", err
	}

	out := util.OutputPath(dir, path)
	tmp := filepath.Join(dir, "."+uuid.New().String()+".mid")
	if err := res.WriteFile(tmp); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "could not replace output")
	}
	return out, nil
}
