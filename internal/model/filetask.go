package model

import (
	"os"
)

// FileTask is synthesized from a Rule plus a concrete output path. Its
// inputs are the rule's dependencies with every '%' replaced by the stem
// captured from the output name.
type FileTask struct {
	Output string
	Inputs []string

	// Action is the rule's function bound to Output; may be nil for
	// rules that declare no function (pure dependency aggregation).
	Action func(name string) error
}

func (t *FileTask) Name() string           { return t.Output }
func (t *FileTask) Dependencies() []string { return t.Inputs }

func (t *FileTask) Run() error {
	if t.Action == nil {
		return nil
	}
	return t.Action(t.Output)
}

// Satisfied implements the FileTask freshness policy:
//   - missing output: not satisfied
//   - a missing input is treated as having mtime -infinity (it can never
//     make the output stale on its own; only an upstream task/rule result
//     can)
//   - any extant input with mtime strictly greater than the output's
//     mtime: not satisfied
//   - equal timestamps count as satisfied
func (t *FileTask) Satisfied() (bool, error) {
	outInfo, err := os.Stat(t.Output)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	outTime := outInfo.ModTime()

	for _, in := range t.Inputs {
		inInfo, err := os.Stat(in)
		if err != nil {
			if os.IsNotExist(err) {
				// No rule/task produces it; treat as an ever-stale
				// source that can never itself mark the output dirty.
				continue
			}
			return false, err
		}
		if inInfo.ModTime().After(outTime) {
			return false, nil
		}
	}

	return true, nil
}
