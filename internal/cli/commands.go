package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CESNET/bota/internal/keymap"
	"github.com/CESNET/bota/internal/progress"
	"github.com/CESNET/bota/internal/transfer"
	"github.com/CESNET/bota/s3"
	"github.com/CESNET/bota/s3/s3types"
)

const defaultListLimit = 1000

func (a *App) lsbCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsb",
		Short: "List buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store Store) error {
				buckets, err := store.ListBuckets(cmd.Context())
				if err != nil {
					return err
				}
				for _, b := range buckets {
					fmt.Fprintln(a.Stdout, b.Name)
				}
				return nil
			})
		},
	}
}

func (a *App) lsCommand() *cobra.Command {
	var (
		limit  int
		prefix string
		offset string
	)

	cmd := &cobra.Command{
		Use:   "ls <bucket>",
		Short: "List objects in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			bucket := args[0]

			return a.withStore(cmd.Context(), func(store Store) error {
				opts := []s3types.ListOption{s3.WithMaxKeys(int32(min(limit, 1<<31-1)))}
				if offset != "" {
					opts = append(opts, s3.WithStartAfter(offset))
				}

				page, err := store.List(cmd.Context(), bucket, prefix, opts...)
				if err != nil {
					return err
				}
				if len(page.Objects) == 0 {
					fmt.Fprintf(a.Stdout, "> [WARN] There are no objects in a bucket \"%s\"\n", bucket)
					return nil
				}
				for _, obj := range page.Objects {
					fmt.Fprintln(a.Stdout, obj.Key)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultListLimit, "maximum number of keys to list")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "list only keys starting with prefix")
	cmd.Flags().StringVarP(&offset, "offset", "o", "", "list keys after this key")
	return cmd
}

func (a *App) putCommand() *cobra.Command {
	var (
		objName      string
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "put <filepath> <bucket>",
		Short: "Upload a file or a directory",
		Long: `Upload a file or a directory tree to a bucket.

A file is stored under --objname, or under its path when no name is given.
A directory is walked recursively and every regular file is stored under
its path with leading and trailing slashes removed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, bucket := args[0], args[1]

			items, err := keymap.New(a.FS).PutItems(source, objName)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store Store) error {
				exec, err := a.executor(store, showProgress)
				if err != nil {
					return err
				}
				result, err := exec.Upload(cmd.Context(), bucket, items)
				return batchError("upload", result, err)
			})
		},
	}

	cmd.Flags().StringVarP(&objName, "objname", "o", "", "object key for a single file upload")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show transfer progress")
	return cmd
}

func (a *App) getCommand() *cobra.Command {
	var (
		target       string
		makeDirs     bool
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "get <bucket> <objname>",
		Short: "Download an object or every object under a prefix",
		Long: `Download an object, or every object under a prefix when objname ends with "/".

A prefix download needs --filepath to be an existing directory written with
a trailing separator; objects are saved under it by their full key.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, objName := args[0], args[1]

			return a.withStore(cmd.Context(), func(store Store) error {
				items, err := keymap.New(a.FS).GetItems(cmd.Context(), store, bucket, objName, target)
				if err != nil {
					return err
				}

				exec, err := a.executor(store, showProgress, transfer.WithMakeDirs(makeDirs))
				if err != nil {
					return err
				}
				result, err := exec.Download(cmd.Context(), bucket, items)
				return batchError("download", result, err)
			})
		},
	}

	cmd.Flags().StringVarP(&target, "filepath", "f", "", "local path to save to")
	cmd.Flags().BoolVarP(&makeDirs, "make-dirs", "d", false, "create missing parent directories")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show transfer progress")
	return cmd
}

func (a *App) mbCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mb <bucket>",
		Short: "Make a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store Store) error {
				var opts []s3types.BucketOption
				if a.region != "" {
					opts = append(opts, s3.WithBucketRegion(a.region))
				}
				if err := store.CreateBucket(cmd.Context(), args[0], opts...); err != nil {
					return err
				}
				fmt.Fprintf(a.Stdout, "> Bucket \"%s\" created\n", args[0])
				return nil
			})
		},
	}
}

func (a *App) rbCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rb <bucket>",
		Short: "Remove an empty bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store Store) error {
				if err := store.DeleteBucket(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.Stdout, "> Bucket \"%s\" removed\n", args[0])
				return nil
			})
		},
	}
}

func (a *App) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <bucket> <objname>",
		Short: "Remove an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store Store) error {
				if err := store.Delete(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(a.Stdout, "> Object \"%s\" removed from bucket %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func (a *App) executor(store Store, showProgress bool, opts ...transfer.Option) (*transfer.Executor, error) {
	opts = append(opts,
		transfer.WithOutput(a.Stdout),
		transfer.WithFilesystem(a.FS),
		transfer.WithLogger(a.logger),
	)
	if showProgress {
		factory, err := progress.NewFactory(a.progressStyle, a.Stdout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transfer.WithProgress(factory))
	}
	return transfer.New(store, opts...), nil
}

// batchError turns a finished batch into the command's error. Per-item
// failures were already printed by the executor.
func batchError(verb string, result *transfer.Result, err error) error {
	if errors.Is(err, transfer.ErrBucketNotFound) {
		return reportedError{err: err}
	}
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return reportedError{err: fmt.Errorf("%s: %d of %d items failed",
			verb, len(result.Failed), len(result.Failed)+result.Transferred)}
	}
	return nil
}
