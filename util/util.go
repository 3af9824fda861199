package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/degreec/constants"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// EnsureOutputDir creates dir if needed and returns it.
func EnsureOutputDir(dir string) (string, error) {
	if dir == "" {
		dir = constants.GetOutputDir()
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrapf(err, "could not create output dir %s", dir)
	}
	return dir, nil
}

// OutputPath maps a source file to its .mid path in dir.
func OutputPath(dir string, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, base+".mid")
}

// GatherSourcePaths returns the source files named by paths, walking
// directories. Files given directly are kept whatever their extension.
// A maxNum of 0 means no limit.
func GatherSourcePaths(paths []string, maxNum int) ([]string, error) {
	var res []string
	full := func() bool { return maxNum != 0 && len(res) >= maxNum }

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not gather sources")
		}
		if !info.IsDir() {
			if !full() {
				res = append(res, path)
			}
			continue
		}
		walk := func(s string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(s, constants.SourceExt) && !full() {
				res = append(res, s)
			}
			return nil
		}
		if err := filepath.WalkDir(path, walk); err != nil {
			return nil, errors.Wrapf(err, "could not walk %s", path)
		}
	}
	return res, nil
}

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Sum[A constraints.Integer](nums []A) uint64 {
	var total uint64
	for _, v := range nums {
		total += uint64(v)
	}
	return total
}
