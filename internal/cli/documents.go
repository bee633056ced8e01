package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/analyzer"
	"github.com/BerylCAtieno/loanmitra/internal/extractor"
	"github.com/BerylCAtieno/loanmitra/internal/intake"
	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

func detectMimeType(name string, data []byte) string {
	if mt, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mt
}

func readLocalFile(path string) (*intake.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return &intake.File{Name: name, MimeType: detectMimeType(name, data), Data: data}, nil
}

func (a *app) newAnalyzer(pivot string) (*analyzer.Analyzer, error) {
	var opts []analyzer.Option
	if pivot != "" {
		code, ok := language.Parse(pivot)
		if !ok {
			return nil, fmt.Errorf("%w: unknown pivot language %q", utils.ErrValidation, pivot)
		}
		opts = append(opts, analyzer.WithPivot(code))
	}
	return analyzer.New(a.client, a.client, a.client, a.logger, opts...), nil
}

func newUploadCommand(a *app) *cobra.Command {
	var analyze, speak bool
	var pivot string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a loan document (PDF, JPEG or PNG, up to 10 MB)",
		Long: `Upload a loan document to your account.

With --analyze the text of a PDF is extracted and summarized right away.

Examples:
  loanmitra upload sanction-letter.pdf
  loanmitra upload sanction-letter.pdf --analyze -l hindi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file, err := readLocalFile(args[0])
			if err != nil {
				return err
			}

			in := intake.New(a.client, a.client, a.notifier, a.logger)
			if err := in.SelectFile(file); err != nil {
				return err
			}
			if err := a.requireUser(ctx); err != nil {
				return err
			}

			a.println(formatMuted(fmt.Sprintf("Uploading %s (%s)...", file.Name, formatSize(file.Size()))))
			doc, err := in.Upload(ctx, in.Pending(), a.gate.User())
			if err != nil {
				return err
			}
			a.println(formatSuccess("Uploaded as " + doc.ID))

			if !analyze {
				return nil
			}
			text, err := extractor.Extract(file.Name, file.MimeType, file.Data)
			if err != nil {
				return fmt.Errorf("extract text: %w", err)
			}
			return a.runAnalysis(ctx, doc.ID, text, pivot, speak)
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Summarize the document after uploading")
	cmd.Flags().BoolVar(&speak, "speak", false, "Read the summary aloud")
	cmd.Flags().StringVar(&pivot, "pivot", "", "Summarize in this language, then translate")
	return cmd
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var text, textFile, pdfFile, pivot string
	var speak bool

	cmd := &cobra.Command{
		Use:   "analyze <document-id>",
		Short: "Summarize an uploaded document",
		Long: `Summarize an uploaded document in the chosen language.

The document text comes from --text, --text-file or --pdf. Without any of
them the text stored by an earlier analysis is reused.

Examples:
  loanmitra analyze 4f1c... --pdf sanction-letter.pdf
  loanmitra analyze 4f1c... --text "Loan Amount: ₹5,00,000 ..." -l tamil
  loanmitra analyze 4f1c... -l hindi --pivot english --speak`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireUser(ctx); err != nil {
				return err
			}
			body, err := a.documentText(ctx, args[0], text, textFile, pdfFile)
			if err != nil {
				return err
			}
			return a.runAnalysis(ctx, args[0], body, pivot, speak)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Document text")
	cmd.Flags().StringVar(&textFile, "text-file", "", "Read document text from a text file")
	cmd.Flags().StringVar(&pdfFile, "pdf", "", "Extract document text from a PDF")
	cmd.Flags().StringVar(&pivot, "pivot", "", "Summarize in this language, then translate")
	cmd.Flags().BoolVar(&speak, "speak", false, "Read the summary aloud")
	cmd.MarkFlagsMutuallyExclusive("text", "text-file", "pdf")
	return cmd
}

func (a *app) documentText(ctx context.Context, id, text, textFile, pdfFile string) (string, error) {
	switch {
	case text != "":
		return text, nil
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", err
		}
		return extractor.ExtractText(data)
	case pdfFile != "":
		data, err := os.ReadFile(pdfFile)
		if err != nil {
			return "", err
		}
		return extractor.ExtractPDF(data)
	}

	doc, err := a.client.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.ExtractedText == nil || *doc.ExtractedText == "" {
		return "", fmt.Errorf("%w: no stored text for %s, pass --text, --text-file or --pdf", utils.ErrValidation, id)
	}
	return *doc.ExtractedText, nil
}

func (a *app) runAnalysis(ctx context.Context, id, text, pivot string, speak bool) error {
	an, err := a.newAnalyzer(pivot)
	if err != nil {
		return err
	}

	a.println(formatMuted(fmt.Sprintf("Summarizing in %s...", language.Name(a.lang))))
	result, err := an.Analyze(ctx, id, text, a.lang)
	if err != nil {
		return err
	}
	if pivot != "" && !result.Translated && result.Language != a.lang {
		a.println(formatWarning("Translation failed, showing the " + language.Name(result.Language) + " summary"))
	}

	a.printSummary(result.Summary, result.Details)
	if speak {
		return a.speak(ctx, result.Summary, result.Language)
	}
	return nil
}

func (a *app) printSummary(summary string, details *models.LoanDetails) {
	a.println()
	a.println(styleHeader.Render("Summary"))
	a.println(summary)
	if grid := renderDetails(details); grid != "" {
		a.println()
		a.println(grid)
	}
}

func newDocumentsCommand(a *app) *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:     "documents [document-id]",
		Aliases: []string{"docs", "ls"},
		Short:   "List your documents or show one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireUser(ctx); err != nil {
				return err
			}

			if len(args) == 1 {
				doc, err := a.client.GetDocument(ctx, args[0])
				if err != nil {
					return err
				}
				a.printDocument(doc)
				if save != "" {
					return a.saveDocument(ctx, doc, save)
				}
				return nil
			}
			if save != "" {
				return fmt.Errorf("%w: --save needs a document id", utils.ErrValidation)
			}

			docs, err := a.client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				a.println(formatWarning("No documents yet. Upload one with `loanmitra upload <file>`."))
				return nil
			}
			a.println(renderDocuments(docs))
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Download the original file to this path")
	return cmd
}

func (a *app) saveDocument(ctx context.Context, doc *models.UploadedDocument, path string) error {
	data, err := a.client.Download(ctx, intake.Bucket, doc.FilePath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	a.println(formatSuccess(fmt.Sprintf("Saved %s to %s", doc.FileName, path)))
	return nil
}

func (a *app) printDocument(doc *models.UploadedDocument) {
	a.printf("%s %s\n", styleBold.Render(doc.FileName), formatMuted("("+string(doc.Status)+")"))
	a.printf("%s %s  %s %s\n", formatMuted("id:"), doc.ID, formatMuted("size:"), formatSize(doc.FileSize))
	if doc.Summary == nil {
		a.println(formatInfo("Not analyzed yet. Run `loanmitra analyze " + doc.ID + "`."))
		return
	}
	a.printSummary(*doc.Summary, doc.Details)
}
