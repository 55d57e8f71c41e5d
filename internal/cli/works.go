package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"musicworks/internal/registration"
	"musicworks/internal/upload"
	"musicworks/internal/workclient"
	"musicworks/pkg/domain"
)

func newWorksCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "works",
		Args:    cobra.NoArgs,
		Aliases: []string{"w"},
		Short:   "Register, browse and maintain musical works",
	}
	cmd.AddCommand(
		newWorksListCommand(e),
		newWorksGetCommand(e),
		newWorksSearchCommand(e),
		newWorksRegisterCommand(e),
		newWorksUpdateCommand(e),
		newWorksDeleteCommand(e),
		newWorksUploadCommand(e),
	)
	return cmd
}

func newWorksListCommand(e *env) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "List your works",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			e.app.Works.FetchWorks(cmd.Context(), params)
			snap := e.app.Works.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			printWorks(cmd.OutOrStdout(), snap.Works, snap.Pagination)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newWorksGetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show one work with its files",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(cmd, args)
			if err != nil {
				return err
			}
			e.app.Works.FetchWork(cmd.Context(), id)
			snap := e.app.Works.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			if snap.CurrentWork == nil {
				return fmt.Errorf("work %s not found", id)
			}
			printWork(cmd.OutOrStdout(), *snap.CurrentWork)
			return nil
		},
	}
}

func newWorksSearchCommand(e *env) *cobra.Command {
	var (
		pf      pageFlags
		filters domain.SearchFilters
	)
	cmd := &cobra.Command{
		Use:   "search",
		Args:  cobra.NoArgs,
		Short: "Search registered works",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.params()
			if err != nil {
				return err
			}
			e.app.Works.SearchWorks(cmd.Context(), filters, params)
			snap := e.app.Works.Snapshot()
			if err := storeError(snap.Error); err != nil {
				return err
			}
			printWorks(cmd.OutOrStdout(), snap.SearchResults, snap.SearchPagination)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&filters.Query, "query", "q", "", "free text query")
	cmd.Flags().StringVar(&filters.Author, "author", "", "author name")
	cmd.Flags().StringVar(&filters.UPCCode, "upc", "", "UPC code")
	cmd.Flags().StringVar(&filters.Status, "status", "", "work status")
	cmd.Flags().StringVar(&filters.DateFrom, "from", "", "registered on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filters.DateTo, "to", "", "registered on or before (YYYY-MM-DD)")
	return cmd
}

func newWorksRegisterCommand(e *env) *cobra.Command {
	var (
		form  registration.WorkForm
		files []string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Args:  cobra.NoArgs,
		Short: "Register a new work with its audio and documents",
		Long: "Register a new work. Each --file is a local path or an s3://bucket/key " +
			"reference; up to 10 audio or document files are accepted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectFiles(cmd, e, e.app.RegistrationUploadConfig(), files)
			if err != nil {
				return err
			}
			form.Files = selected
			work, err := form.Submit(cmd.Context(), e.app.Works)
			if err != nil {
				var verr *registration.ValidationError
				if errors.As(err, &verr) {
					return verr
				}
				return sessionError(err, e.app.Works.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered work %s (%s)\n", work.ID, work.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "work title")
	cmd.Flags().StringArrayVarP(&form.Authors, "author", "a", nil, "author name (repeatable)")
	cmd.Flags().StringArrayVar(&form.CoAuthors, "co-author", nil, "co-author name (repeatable)")
	cmd.Flags().StringVar(&form.ISRC, "isrc", "", "ISRC code (CC-XXX-YY-NNNNN)")
	cmd.Flags().StringVar(&form.ISWC, "iswc", "", "ISWC code (T-DDD.DDD.DDD-C)")
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "description")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "file to attach (repeatable)")
	return cmd
}

func newWorksUpdateCommand(e *env) *cobra.Command {
	var (
		title, isrc, iswc, status string
		authors, coAuthors        []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Change fields of a work",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(cmd, args)
			if err != nil {
				return err
			}
			var update domain.WorkUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("isrc") {
				update.ISRC = &isrc
			}
			if flags.Changed("iswc") {
				update.ISWC = &iswc
			}
			if flags.Changed("status") {
				st := domain.WorkStatus(status)
				update.Status = &st
			}
			update.Authors = authors
			update.CoAuthors = coAuthors
			if !anyChanged(cmd, "title", "isrc", "iswc", "status", "author", "co-author") {
				return errors.New("nothing to update")
			}
			if err := e.app.Works.UpdateWork(cmd.Context(), id, update); err != nil {
				return sessionError(err, e.app.Works.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated work %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVar(&isrc, "isrc", "", "new ISRC code")
	cmd.Flags().StringVar(&iswc, "iswc", "", "new ISWC code")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringArrayVarP(&authors, "author", "a", nil, "replace authors (repeatable)")
	cmd.Flags().StringArrayVar(&coAuthors, "co-author", nil, "replace co-authors (repeatable)")
	return cmd
}

func newWorksDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Args:  cobra.ExactArgs(1),
		Short: "Delete a work",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(cmd, args)
			if err != nil {
				return err
			}
			if err := e.app.Works.DeleteWork(cmd.Context(), id); err != nil {
				return sessionError(err, e.app.Works.Snapshot().Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted work %s\n", id)
			return nil
		},
	}
}

func newWorksUploadCommand(e *env) *cobra.Command {
	var workID string
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Upload files, optionally attaching them to a work",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectFiles(cmd, e, e.app.UploadConfig(), args)
			if err != nil {
				return err
			}
			parts := make([]workclient.FilePart, 0, len(selected))
			for _, c := range selected {
				rc, err := c.Open()
				if err != nil {
					return fmt.Errorf("open %s: %w", c.Name, err)
				}
				defer rc.Close()
				parts = append(parts, workclient.FilePart{Name: c.Name, Body: rc})
			}
			res, err := e.app.WorkClient.UploadFiles(cmd.Context(), parts, strings.TrimSpace(workID))
			if err != nil {
				return commandError(err, "Failed to upload files")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s)\n", len(res.Files))
			printFiles(cmd.OutOrStdout(), res.Files)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workID, "work", "w", "", "work id to attach the files to")
	return cmd
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// selectFiles resolves refs and runs them through a selector built from
// cfg. Any rejected file fails the command with every reason listed.
func selectFiles(cmd *cobra.Command, e *env, cfg upload.Config, refs []string) ([]upload.Candidate, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	candidates, err := e.app.Files.ResolveAll(cmd.Context(), refs)
	if err != nil {
		return nil, err
	}
	sel := upload.NewSelector(cfg)
	res := sel.Add(candidates...)
	if len(res.Errors) > 0 {
		errw := cmd.ErrOrStderr()
		for _, msg := range res.Errors {
			fmt.Fprintln(errw, msg)
		}
		return nil, fmt.Errorf("%d file problem(s), nothing was sent", len(res.Errors))
	}
	return sel.Files(), nil
}
