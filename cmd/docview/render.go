package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/pkg/events"

	"github.com/fatih/color"
)

const barWidth = 30

// terminal is the display layer: it answers confirmations, reports
// navigation and alerts, and draws poll events.
type terminal struct {
	in       *bufio.Reader
	out      io.Writer
	assumeOK bool
	asJSON   bool
	mapper   *mapper.DocumentMapper
}

func newTerminal(in io.Reader, out io.Writer, assumeOK, asJSON bool) *terminal {
	return &terminal{
		in:       bufio.NewReader(in),
		out:      out,
		assumeOK: assumeOK,
		asJSON:   asJSON,
		mapper:   mapper.NewDocumentMapper(),
	}
}

func (t *terminal) Confirm(prompt string) bool {
	if t.assumeOK {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (t *terminal) Navigate(route string) {
	fmt.Fprintln(t.out, color.GreenString("Document deleted."), "Back to", route)
}

func (t *terminal) Alert(message string) {
	fmt.Fprintln(t.out, color.RedString(message))
}

// PollEvent draws one event from the poll bus.
func (t *terminal) PollEvent(p dto.PollEventPayload) {
	if t.asJSON {
		_ = json.NewEncoder(t.out).Encode(p)
		return
	}

	switch p.Kind {
	case events.TypeDocumentProgress:
		fmt.Fprintf(t.out, "\r%s %s %3d%%", color.CyanString("Processing"), bar(p.Progress), p.Progress)
	case events.TypeDocumentReady:
		fmt.Fprintf(t.out, "\r%s %s %3d%%\n", color.GreenString("Ready     "), bar(100), 100)
		if p.Document != nil {
			// A dropped mind tree still leaves the rest worth printing.
			doc, _ := t.mapper.ToEntity(p.Document)
			t.Document(doc)
		}
	case events.TypeDocumentError:
		fmt.Fprintln(t.out)
		t.Alert("Document not found")
	}
}

// Document prints the generated study material.
func (t *terminal) Document(doc *entity.Document) {
	heading := color.New(color.Bold, color.FgCyan).SprintFunc()

	if doc.Name != "" {
		fmt.Fprintln(t.out, heading(doc.Name))
	}

	fmt.Fprintln(t.out, heading("\nTopics"))
	for i, topic := range doc.Topics {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, topic)
		if exp, ok := doc.Explanations[topic]; ok {
			fmt.Fprintf(t.out, "     %s\n", color.HiBlackString(exp))
		}
	}
	// Explanations for keys that are not listed topics.
	var extra []string
	for k := range doc.Explanations {
		if !contains(doc.Topics, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(t.out, "  - %s: %s\n", k, doc.Explanations[k])
	}

	if doc.MindTree != nil {
		fmt.Fprintln(t.out, heading("\nMind map"))
		printTree(t.out, doc.MindTree, "  ")
	}

	if len(doc.PredictedQuestions) > 0 {
		fmt.Fprintln(t.out, heading("\nPredicted questions"))
		for i, q := range doc.PredictedQuestions {
			fmt.Fprintf(t.out, "  Q%d. %s\n", i+1, q.Question)
			fmt.Fprintf(t.out, "      %s\n", color.HiBlackString(q.Answer))
		}
	}
	if doc.FileURL != "" {
		fmt.Fprintf(t.out, "\nFile: %s\n", doc.FileURL)
	}
}

func printTree(w io.Writer, n *entity.MindNode, indent string) {
	fmt.Fprintf(w, "%s%s\n", indent, n.Label)
	for _, c := range n.Children {
		printTree(w, c, indent+"  ")
	}
}

func bar(progress int) string {
	filled := progress * barWidth / 100
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
