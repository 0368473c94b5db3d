package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"oauthrelay/internal/adk"
	"oauthrelay/internal/callback"
	"oauthrelay/internal/config"
	"oauthrelay/internal/deliver"
	"oauthrelay/internal/page"
	"oauthrelay/internal/relay"
	"oauthrelay/pkg/logging"
	pkgstrings "oauthrelay/pkg/strings"
)

// maxMessageColumn truncates the message column of the result table.
const maxMessageColumn = 80

type deliverFlags struct {
	pageFile    string
	mount       string
	mountInto   string
	mountDelay  time.Duration
	timeout     time.Duration
	settleDelay time.Duration
	forward     bool
	quiet       bool
}

func newDeliverCmd() *cobra.Command {
	f := &deliverFlags{}
	cmd := &cobra.Command{
		Use:   "deliver <landing-url>",
		Short: "Run the callback relay against a single chat page",
		Long: `Loads a chat page headlessly at the given landing URL and runs the callback
relay on it: the OAuth parameters are removed from the address, the page is
polled for a chat input and send button, and the synthesized message is typed
and submitted.

The page document is read from --page (use - for stdin) or fetched from the
landing URL. --mount adds markup after --mount-delay to stand in for a chat UI
that renders late. With --forward the submitted text is also posted to the
user's agent session configured under adk.

Examples:
  oauthrelay deliver 'http://localhost:8000/?oauth_code=AC&oauth_state=n%7Ca%40b.c&email=a%40b.c' --page chat.html
  oauthrelay deliver "$URL" --page shell.html --mount '<textarea></textarea><button>Send</button>' --mount-delay 2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeliver(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.pageFile, "page", "", "HTML document of the chat page (- for stdin); fetched from the URL when empty")
	cmd.Flags().StringVar(&f.mount, "mount", "", "HTML fragment mounted into the page after --mount-delay")
	cmd.Flags().StringVar(&f.mountInto, "mount-into", "", "Element id the fragment is mounted into (default: body)")
	cmd.Flags().DurationVar(&f.mountDelay, "mount-delay", time.Second, "Delay before mounting the fragment")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Readiness wait timeout (overrides delivery.timeout)")
	cmd.Flags().DurationVar(&f.settleDelay, "settle-delay", 0, "Delay between input and submit (overrides delivery.settleDelay)")
	cmd.Flags().BoolVar(&f.forward, "forward", false, "Post the submitted text to the agent session")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress the progress spinner")
	return cmd
}

// deliverReport is what the deliver command prints.
type deliverReport struct {
	Result     deliver.Result
	Address    string
	Title      string
	Submitted  string
	Session    string
	ForwardErr error
}

func runDeliver(cmd *cobra.Command, landingURL string, f *deliverFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Delivery.Timeout = f.timeout
	}
	if cmd.Flags().Changed("settle-delay") {
		cfg.Delivery.SettleDelay = f.settleDelay
	}
	opts, err := deliveryOptions(cfg.Delivery)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loc, err := page.NewLocation(landingURL)
	if err != nil {
		return err
	}
	doc, err := loadDocument(ctx, cmd.InOrStdin(), f.pageFile, landingURL)
	if err != nil {
		return err
	}
	p := page.New(loc, doc)

	var fwd *forwarder
	if f.forward {
		fwd, err = newForwarder(cfg)
		if err != nil {
			return err
		}
		fwd.watch(ctx, doc)
	}

	var (
		mu   sync.Mutex
		done <-chan deliver.Result
	)
	r := relay.New(deliver.New(opts), nil)
	r.OnDispatch = func(_ callback.Params, ch <-chan deliver.Result) {
		mu.Lock()
		done = ch
		mu.Unlock()
	}
	r.Attach(ctx, p)

	p.FireReady()
	p.FireLoad()

	mu.Lock()
	ch := done
	mu.Unlock()
	if ch == nil {
		fmt.Fprintln(cmd.OutOrStdout(), text.FgYellow.Sprint("No OAuth callback parameters found at "+landingURL))
		return nil
	}

	if f.mount != "" {
		time.AfterFunc(f.mountDelay, func() {
			if err := doc.Mount(f.mountInto, f.mount); err != nil {
				logging.Error("CLI", err, "Failed to mount fragment")
			}
		})
	}

	var s *spinner.Spinner
	if !f.quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Waiting for the chat input..."
		s.Start()
	}
	res := <-ch
	if s != nil {
		s.Stop()
	}

	report := deliverReport{
		Result:  res,
		Address: loc.Href(),
		Title:   p.Title(),
	}
	if entry := doc.TextEntry(); entry != nil {
		report.Submitted = entryText(entry)
	}
	if fwd != nil {
		report.Session, report.ForwardErr = fwd.result(ctx)
	}
	printReport(cmd.OutOrStdout(), report)

	if res.Outcome != deliver.OutcomeSent {
		return fmt.Errorf("%w: %s", errNotDelivered, res.Outcome)
	}
	if report.ForwardErr != nil {
		return fmt.Errorf("failed to forward message: %w", report.ForwardErr)
	}
	return nil
}

// loadDocument reads the page from file, stdin or the network.
func loadDocument(ctx context.Context, stdin io.Reader, file, landingURL string) (*page.Document, error) {
	switch file {
	case "-":
		return page.Parse(stdin)
	case "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, landingURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := cleanhttp.DefaultClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", landingURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: %s", landingURL, resp.Status)
		}
		return page.Parse(resp.Body)
	default:
		fh, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		defer fh.Close()
		return page.Parse(fh)
	}
}

func entryText(el *page.Element) string {
	if el.IsFormControl() {
		return el.Value()
	}
	return el.TextContent()
}

// forwarder posts the text submitted on the page to an agent session.
type forwarder struct {
	surface *adk.SessionSurface

	once sync.Once
	done chan struct{}
	err  error
}

func newForwarder(cfg config.Config) (*forwarder, error) {
	if cfg.ADK.AppName == "" {
		return nil, errAppNameRequired
	}
	client, err := adk.NewClient(cfg.AgentBaseURL(), adk.WithMaxRetries(cfg.ADK.MaxRetries))
	if err != nil {
		return nil, err
	}
	return &forwarder{
		surface: adk.NewSessionSurface(client, cfg.ADK.AppName, cfg.ADK.UserID, cfg.ADK.CreateSession),
		done:    make(chan struct{}),
	}, nil
}

// watch forwards the entry text on the first click of a button in the document.
func (fw *forwarder) watch(ctx context.Context, doc *page.Document) {
	body := doc.Body()
	if body == nil {
		return
	}
	body.AddEventListener(page.EventClick, func(ev page.Event, _ *page.Element) {
		if ev.Target == nil || ev.Target.TagName() != "BUTTON" {
			return
		}
		fw.once.Do(func() {
			defer close(fw.done)
			entry := doc.TextEntry()
			if entry == nil {
				fw.err = fmt.Errorf("no chat input to forward")
				return
			}
			fw.err = fw.send(ctx, entryText(entry))
		})
	})
}

func (fw *forwarder) send(ctx context.Context, msg string) error {
	te, err := fw.surface.TextEntry(ctx)
	if err != nil {
		return err
	}
	if te == nil {
		return fmt.Errorf("user has no agent session")
	}
	te.SetText(msg)
	submit, err := fw.surface.SubmitControl(ctx)
	if err != nil {
		return err
	}
	return submit.Activate(ctx)
}

// result returns the session the text went to. It reports an error when nothing
// was submitted.
func (fw *forwarder) result(ctx context.Context) (string, error) {
	select {
	case <-fw.done:
		return fw.surface.SessionID(), fw.err
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("nothing was submitted")
	}
}

func printReport(w io.Writer, r deliverReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})

	outcome := text.FgGreen.Sprint(r.Result.Outcome.String())
	if r.Result.Outcome != deliver.OutcomeSent {
		outcome = text.FgRed.Sprint(r.Result.Outcome.String())
	}

	t.AppendRows([]table.Row{
		{"Delivery", r.Result.ID},
		{"Identity", r.Result.Identity},
		{"Outcome", outcome},
		{"Address", r.Address},
		{"Title", r.Title},
		{"Submitted", pkgstrings.SingleLine(r.Submitted, maxMessageColumn)},
	})
	if r.Result.Err != nil {
		t.AppendRow(table.Row{"Error", r.Result.Err.Error()})
	}
	if r.Session != "" {
		t.AppendRow(table.Row{"Session", r.Session})
	}
	if r.ForwardErr != nil {
		t.AppendRow(table.Row{"Forward error", r.ForwardErr.Error()})
	}
	t.Render()
}
