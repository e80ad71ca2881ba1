package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"ai-docview/internal/controller"
	"ai-docview/internal/dto"
	"ai-docview/internal/mapper"
	"ai-docview/pkg/events"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if _, ok := app.Sessions.BackendToken(); !ok {
			return errNotSignedIn
		}

		docs, err := app.Documents.List(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			m := mapper.NewDocumentMapper()
			out := make([]*dto.DocumentResponse, 0, len(docs))
			for _, d := range docs {
				out = append(out, m.ToDTO(d))
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if len(docs) == 0 {
			fmt.Println("No documents")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPROGRESS")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", d.Id, d.Name, statusColor(string(d.Status)), d.Progress)
		}
		return w.Flush()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <document-id>",
	Short: "Follow a document until its processing finishes",
	Long: `watch fetches the document and, while the service reports it as
processing, fetches it again every 2 seconds, drawing the progress. When
the document is ready its topics, mind map and predicted questions are
printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if _, ok := app.Sessions.BackendToken(); !ok {
			return errNotSignedIn
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		ui := newTerminal(os.Stdin, os.Stdout, false, asJSON)
		finished := make(chan error, 1)
		err := app.ConsumerService.Consume(ctx, func(ctx context.Context, p dto.PollEventPayload) error {
			ui.PollEvent(p)
			switch p.Kind {
			case events.TypeDocumentReady:
				finish(finished, nil)
			case events.TypeDocumentError:
				finish(finished, errors.New(p.Error))
			}
			return nil
		})
		if err != nil {
			return err
		}

		view, loop := app.NewDocumentView(ctx, ui, ui, ui)
		defer func() {
			view.Close()
			cancel()
			loop.Wait()
		}()
		view.Open(args[0])

		select {
		case err := <-finished:
			if err != nil {
				return fmt.Errorf("document %s: %w", args[0], err)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if _, ok := app.Sessions.BackendToken(); !ok {
			return errNotSignedIn
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		ui := newTerminal(os.Stdin, os.Stdout, yes, false)
		view, loop := app.NewDocumentView(ctx, ui, ui, ui)
		defer func() {
			view.Close()
			cancel()
			loop.Wait()
		}()
		view.Select(args[0])

		err := view.Delete(ctx)
		if errors.Is(err, controller.ErrDeleteCancelled) {
			fmt.Println("Cancelled")
			return nil
		}
		return err
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	watchCmd.Flags().Bool("json", false, "print one JSON event per line")
	deleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(listCmd, watchCmd, deleteCmd)
}

func finish(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func statusColor(status string) string {
	switch status {
	case "ready":
		return color.GreenString(status)
	case "processing":
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}
