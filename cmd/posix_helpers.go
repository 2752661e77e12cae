package cmd

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// expandPatterns resolves glob patterns on Windows since there's no shell doing it for us. On every other
// platform the arguments have already been expanded by the task shell.
func expandPatterns(patterns []string, allowEmpty bool) ([]string, error) {
	if runtime.GOOS != "windows" {
		return patterns, nil
	}

	items := []string{}
	for _, arg := range patterns {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "Failed to resolve pattern %s", arg)
		}

		if matches == nil {
			if allowEmpty {
				continue
			}
			return nil, eris.Errorf("Pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

func moveItems(items []string, dest string) error {
	dest = filepath.Clean(dest)
	destParent := filepath.Dir(dest)
	info, err := os.Stat(destParent)
	if err != nil {
		return eris.Wrapf(err, "Could not find destination directory %s", destParent)
	}

	if !info.IsDir() {
		return eris.Errorf("%s is not a directory!", destParent)
	}

	destIsDir := false
	info, err = os.Stat(dest)
	if err == nil {
		destIsDir = info.IsDir()
	} else if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "Failed to retrieve info about destination %s", dest)
	}

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("Can't move multiple items to %s because it is not a directory!", dest)
	}

	for _, item := range items {
		itemDest := dest
		if destIsDir {
			itemDest = filepath.Join(dest, filepath.Base(item))
		}

		err = os.Rename(item, itemDest)
		if err != nil {
			return eris.Wrapf(err, "Failed to move %s to %s", item, itemDest)
		}
	}

	return nil
}

func removeItems(items []string, recursive, force bool) error {
	for _, item := range items {
		info, err := os.Stat(item)
		if err != nil {
			if force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "Could not stat %s", item)
		}

		if info.IsDir() && !recursive {
			return eris.Errorf("%s is a directory but -r wasn't passed", item)
		}
	}

	for _, item := range items {
		err := os.RemoveAll(item)
		if err != nil && (!force || !eris.Is(err, os.ErrNotExist)) {
			return eris.Wrapf(err, "Could not delete %s", item)
		}
	}

	return nil
}

func makeDirs(items []string, parents bool) error {
	for _, item := range items {
		var err error
		if parents {
			err = os.MkdirAll(item, 0770)
		} else {
			err = os.Mkdir(item, 0770)
		}

		if err != nil {
			return eris.Wrapf(err, "Failed to create %s", item)
		}
	}

	return nil
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <source>... <dest>",
		Short: "Cross-platform implementation of the POSIX mv command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return eris.New("Not enough parameters")
			}

			items, err := expandPatterns(args[:len(args)-1], false)
			if err != nil {
				return err
			}

			return moveItems(items, args[len(args)-1])
		},
	}
}

func newRmCmd() *cobra.Command {
	rmCmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "A cross-platform implementation of the POSIX rm command",
		RunE: func(cmd *cobra.Command, args []string) error {
			recursive, err := cmd.Flags().GetBool("recursive")
			if err != nil {
				return err
			}

			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			items, err := expandPatterns(args, force)
			if err != nil {
				return err
			}

			return removeItems(items, recursive, force)
		},
	}

	rmCmd.Flags().BoolP("recursive", "r", false, "recursively delete directories")
	rmCmd.Flags().BoolP("force", "f", false, "suppresses errors caused by missing files/folders")
	return rmCmd
}

func newMkdirCmd() *cobra.Command {
	mkdirCmd := &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "A cross-platform implementation of the POSIX mkdir command",
		RunE: func(cmd *cobra.Command, args []string) error {
			parents, err := cmd.Flags().GetBool("parents")
			if err != nil {
				return err
			}

			return makeDirs(args, parents)
		},
	}

	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")
	return mkdirCmd
}
