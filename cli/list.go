package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

const listTimeout = 30 * time.Second

type listOptions struct {
	page     int
	pageSize int
	search   string
	format   string
}

func newListCommand() *cobra.Command {

	var opts listOptions

	cmd := &cobra.Command{
		Use:       "list <collection>",
		Short:     "Print one page of a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: objects.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {

			def, err := objects.Lookup(args[0])
			if err != nil {
				return err
			}

			app := appFrom(cmd.Context())

			rt, err := openRuntime(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer rt.close()

			if opts.pageSize == 0 {
				opts.pageSize = app.cfg.Query.PageSize
			}

			client := rt.newClient(app.cfg, app.logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
			defer cancel()

			return runList(ctx, cmd.OutOrStdout(), client, def, opts)
		},
	}

	cmd.Flags().IntVar(&opts.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "rows per page (default: query.page_size)")
	cmd.Flags().StringVar(&opts.search, "search", "", "filter on the collection search field")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "output format (table|json)")

	return cmd
}

// runList opens a handle on def, applies the search and page and renders the
// page once it has settled.
func runList(ctx context.Context, w io.Writer, client *query.Client, def objects.Definition, opts listOptions) error {

	if opts.format != formatTable && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q (use table or json)", opts.format)
	}

	ref, err := def.Reference()
	if err != nil {
		return err
	}

	h, err := client.Collection(ref, opts.pageSize)
	if err != nil {
		return err
	}
	defer h.Close()

	if opts.search != "" {
		h.SetPendingSearchTerm(opts.search)
		if err := h.SubmitSearch(); err != nil {
			return err
		}
	}

	if opts.page != 1 {
		if err := h.SetPage(opts.page); err != nil {
			return err
		}
	}

	if err := h.Wait(ctx); err != nil {
		return err
	}

	res := h.Result()
	if err := renderResult(w, def, res, opts.format); err != nil {
		return err
	}

	return res.Err
}
