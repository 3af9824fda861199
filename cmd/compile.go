package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/jsphweid/degreec/compile"
	"github.com/jsphweid/degreec/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outDir    string
	keepGoing bool
	jobs      int
	maxFiles  int
)

func init() {
	compileCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default $DEGREEC_OUT_PATH or ./out)")
	compileCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "compile every file even after a failure")
	compileCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files compiled at once")
	compileCmd.Flags().IntVar(&maxFiles, "max", 0, "compile at most this many files")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <files or dirs...>",
	Short: "Compiles sources to MIDI files",
	Long: `Compiles each .dn file (directories are searched recursively) into
<out>/<name>.mid. Syntax errors are printed as file:line:col: message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := util.GatherSourcePaths(args, maxFiles)
		if err != nil {
			return err
		}
		dir, err := util.EnsureOutputDir(outDir)
		if err != nil {
			return err
		}
		failed := CompileAll(cmd.Context(), paths, dir, jobs, keepGoing, cmd.ErrOrStderr())
		if failed > 0 {
			return errors.Errorf("%d of %d files failed", failed, len(paths))
		}
		return nil
	},
}

// CompileAll compiles paths into dir with up to jobs workers and returns the
// number of files that failed. Unless keepGoing is set the first failure
// stops files that have not started yet.
func CompileAll(ctx context.Context, paths []string, dir string, jobs int, keepGoing bool, diag io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	failed := 0

	workers := util.Min(jobs, len(paths))
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				lines, err := compileOne(path, dir)
				mu.Lock()
				for _, line := range lines {
					fmt.Fprintln(diag, line)
				}
				if err != nil {
					failed++
					log.WithField("file", path).Error(err)
					if !keepGoing {
						cancel()
					}
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i, path := range paths {
		select {
		case <-ctx.Done():
			log.Warnf("skipping %d remaining files", len(paths)-i)
			break feed
		case work <- path:
		}
	}
	close(work)
	wg.Wait()
	return failed
}

func compileOne(path, dir string) ([]string, error) {
	res, err := compile.CompileFile(path)
	if err != nil {
		var lines []string
		if res != nil {
			for _, d := range res.Diagnostics {
				lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", path, d.Line, d.Column, d.Message))
			}
		}
		return lines, err
	}
	out := util.OutputPath(dir, path)
	if err := res.WriteFile(out); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"file": path, "out": out}).Info("compiled")
	return nil, nil
}
