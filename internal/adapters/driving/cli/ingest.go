package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

var (
	ingestConversation string
	ingestFormat       string
	ingestJSON         bool
)

// formatMIME maps --format values to MIME types.
var formatMIME = map[string]string{
	"json": "application/json",
	"html": "text/html",
	"txt":  "text/plain",
}

// Terminal checks, replaceable in tests.
var (
	stdinIsTerminal  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>... | -",
	Short: "Extract Q&A pairs from chat exports",
	Long: `Parses exported chat transcripts (JSON, HTML or plain text), extracts
question/answer pairs and adds them to the knowledge base.

Use "-" to read a single transcript from standard input; --format tells
the parser what it is. All files are committed in one batch; a file that
fails to parse or validate is reported and does not affect the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestConversation, "conversation", "c", "",
		"conversation ID (single input only; default derived from the file name)")
	ingestCmd.Flags().StringVarP(&ingestFormat, "format", "f", "", "input format for stdin: json, html or txt")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// ingestReport is the outcome of one ingest invocation.
type ingestReport struct {
	Batch       *domain.BatchResult          `json:"batch"`
	ParseErrors []domain.ConversationFailure `json:"parse_errors,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil || normaliser == nil {
		return errors.New("ingest service not configured")
	}
	if ingestConversation != "" && len(args) > 1 {
		return fmt.Errorf("--conversation needs a single input, got %d: %w", len(args), domain.ErrInvalidInput)
	}
	mimeType := ""
	if ingestFormat != "" {
		mt, ok := formatMIME[ingestFormat]
		if !ok {
			return fmt.Errorf("unknown format %q: %w", ingestFormat, domain.ErrInvalidInput)
		}
		mimeType = mt
	}

	ctx := commandContext(cmd)
	report := ingestReport{}

	var bar *progressbar.ProgressBar
	if len(args) > 1 && !ingestJSON && stdoutIsTerminal() {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Parsing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var conversations []domain.Conversation
	for _, arg := range args {
		conv, err := parseInput(cmd, arg, mimeType)
		if err != nil {
			report.ParseErrors = append(report.ParseErrors, domain.ConversationFailure{
				ConversationID: arg,
				Err:            err,
				Message:        explain(err).Error(),
			})
		} else {
			conversations = append(conversations, *conv)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	batch := &domain.BatchResult{}
	if len(conversations) > 0 {
		var err error
		batch, err = ingestService.IngestBatch(ctx, conversations)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", explain(err))
		}
	}
	report.Batch = batch

	if ingestJSON {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printIngestReport(cmd, report)
	}

	if failed := len(report.ParseErrors) + len(batch.Failures); failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(args))
	}
	return nil
}

func parseInput(cmd *cobra.Command, arg, mimeType string) (*domain.Conversation, error) {
	raw, err := readTranscript(cmd, arg)
	if err != nil {
		return nil, err
	}
	raw.MIMEType = mimeType
	raw.ConversationID = ingestConversation
	parsed, err := normaliser.Normalise(commandContext(cmd), raw)
	if err != nil {
		return nil, err
	}
	return &parsed.Conversation, nil
}

// readTranscript reads a file, or stdin for "-".
func readTranscript(cmd *cobra.Command, arg string) (*domain.RawTranscript, error) {
	if arg != "-" {
		content, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		return &domain.RawTranscript{URI: arg, Content: content}, nil
	}

	in := cmd.InOrStdin()
	if in == os.Stdin && stdinIsTerminal() {
		return nil, fmt.Errorf("no transcript piped to stdin: %w", domain.ErrInvalidInput)
	}
	if ingestFormat == "" {
		return nil, fmt.Errorf("reading stdin needs --format: %w", domain.ErrInvalidInput)
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return &domain.RawTranscript{URI: "-", Content: content}, nil
}

func printIngestReport(cmd *cobra.Command, report ingestReport) {
	for _, r := range report.Batch.Results {
		cmd.Printf("%s: %d accepted, %d replaced, %d duplicates, %d rejected\n",
			r.ConversationID, r.Accepted, r.Replaced, r.Duplicates, r.Rejected)
	}
	for _, f := range report.ParseErrors {
		cmd.Printf("%s: failed: %s\n", f.ConversationID, f.Message)
	}
	for _, f := range report.Batch.Failures {
		cmd.Printf("%s: failed: %s\n", f.ConversationID, f.Message)
	}

	t := report.Batch.Totals()
	cmd.Println()
	cmd.Printf("Total: %d accepted, %d replaced, %d duplicates, %d rejected (%d uncategorised)\n",
		t.Accepted, t.Replaced, t.Duplicates, t.Rejected, t.Fallbacks)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
