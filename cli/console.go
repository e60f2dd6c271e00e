package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

const consoleWaitTimeout = 30 * time.Second

func newConsoleCommand() *cobra.Command {

	var pageSize int

	cmd := &cobra.Command{
		Use:       "console [collection]",
		Short:     "Browse collections interactively",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: objects.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {

			name := objects.UnitsCollection
			if len(args) == 1 {
				name = args[0]
			}

			app := appFrom(cmd.Context())

			rt, err := openRuntime(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer rt.close()

			if pageSize == 0 {
				pageSize = app.cfg.Query.PageSize
			}

			deleter, _ := rt.backend.(collection.Deleter)
			c := newConsole(cmd.Context(), cmd.OutOrStdout(), rt.newClient(app.cfg, app.logger), deleter, pageSize)
			defer c.close()

			if err := c.use(name); err != nil {
				return err
			}

			return c.run()
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default: query.page_size)")

	return cmd
}

// console is the state of one interactive session. Every command prints the
// page once the handle has settled.
type console struct {
	ctx      context.Context
	out      io.Writer
	client   *query.Client
	deleter  collection.Deleter
	pageSize int

	def    objects.Definition
	handle *query.Handle
}

func newConsole(ctx context.Context, out io.Writer, client *query.Client, deleter collection.Deleter, pageSize int) *console {
	return &console{ctx: ctx, out: out, client: client, deleter: deleter, pageSize: pageSize}
}

func (c *console) run() error {

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		AutoComplete:    newConsoleCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(c.out, "Type .help for commands, .quit to exit")
	c.render()

	for {
		line, err := rl.Readline()
		if goerrors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if goerrors.Is(err, io.EOF) {
			return nil
		}

		if quit := c.exec(line); quit {
			return nil
		}
		rl.SetPrompt(c.prompt())
	}
}

func (c *console) prompt() string {
	return fmt.Sprintf("propadmin:%s> ", c.def.Name)
}

// exec runs one console line and reports whether the session should end.
func (c *console) exec(line string) bool {

	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printConsoleHelp(c.out)
		return false

	case ".use":
		err = c.use(arg)

	case ".next":
		res := c.handle.Result()
		if res.Page >= res.PageCount() {
			_, _ = fmt.Fprintln(c.out, "Already on the last page")
			return false
		}
		err = c.handle.SetPage(res.Page + 1)

	case ".prev":
		res := c.handle.Result()
		if res.Page <= 1 {
			_, _ = fmt.Fprintln(c.out, "Already on the first page")
			return false
		}
		err = c.handle.SetPage(res.Page - 1)

	case ".page":
		err = c.withNumber(arg, c.handle.SetPage)

	case ".size":
		err = c.withNumber(arg, func(size int) error {
			if size > collection.MaxPageSize {
				return errors.PageSizeInvalidError.New()
			}
			return c.handle.SetPageSize(size)
		})

	case ".search":
		c.handle.SetPendingSearchTerm(arg)
		_, _ = fmt.Fprintf(c.out, "Search box: %q (.submit to apply)\n", arg)
		return false

	case ".submit":
		err = c.handle.SubmitSearch()

	case ".clear":
		err = c.handle.ClearSearch()

	case ".refresh":
		err = c.handle.Revalidate()

	case ".delete":
		err = c.delete(arg)

	default:
		_, _ = fmt.Fprintf(c.out, "Unknown command: %s (type .help for commands)\n", command)
		return false
	}

	if err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return false
	}

	c.render()
	return false
}

// use switches the session to another collection on the first page.
func (c *console) use(name string) error {

	def, err := objects.Lookup(name)
	if err != nil {
		return err
	}

	ref, err := def.Reference()
	if err != nil {
		return err
	}

	h, err := c.client.Collection(ref, c.pageSize)
	if err != nil {
		return err
	}

	if c.handle != nil {
		c.handle.Close()
	}

	c.def, c.handle = def, h
	return nil
}

func (c *console) delete(itemID string) error {

	if itemID == "" {
		return fmt.Errorf("usage: .delete <id>")
	}

	if c.deleter == nil {
		return errors.OperationUnsupportedError.New("delete", "current")
	}

	if err := c.deleter.Delete(c.ctx, c.def.Name, itemID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Deleted %s\n", itemID)

	c.client.RevalidateCollection(c.def.Name)
	if err := c.wait(); err != nil {
		return err
	}

	// The last page may have disappeared with the record.
	res := c.handle.Result()
	if pages := res.PageCount(); pages > 0 && res.Page > pages {
		return c.handle.SetPage(pages)
	}

	return nil
}

func (c *console) withNumber(arg string, apply func(int) error) error {

	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", arg)
	}

	return apply(n)
}

func (c *console) wait() error {

	ctx, cancel := context.WithTimeout(c.ctx, consoleWaitTimeout)
	defer cancel()

	return c.handle.Wait(ctx)
}

func (c *console) render() {

	if err := c.wait(); err != nil {
		_, _ = fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	_ = renderResult(c.out, c.def, c.handle.Result(), formatTable)
}

func (c *console) close() {
	if c.handle != nil {
		c.handle.Close()
	}
}

func printConsoleHelp(w io.Writer) {
	help := `
Commands:
  .use <collection>  Switch to another collection
  .next / .prev      Go to the next or previous page
  .page <n>          Go to page n
  .size <n>          Change rows per page and go back to page 1
  .search <text>     Type into the search box
  .submit            Apply the search box and go back to page 1
  .clear             Clear the search
  .refresh           Refetch the current page
  .delete <id>       Delete a record and refresh
  .help              Show this help message
  .quit / .exit      Exit the console
`
	_, _ = fmt.Fprintln(w, help)
}

func newConsoleCompleter() *readline.PrefixCompleter {

	var collections []readline.PrefixCompleterInterface
	for _, name := range objects.Names() {
		collections = append(collections, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".use", collections...),
		readline.PcItem(".next"),
		readline.PcItem(".prev"),
		readline.PcItem(".page"),
		readline.PcItem(".size"),
		readline.PcItem(".search"),
		readline.PcItem(".submit"),
		readline.PcItem(".clear"),
		readline.PcItem(".refresh"),
		readline.PcItem(".delete"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}
