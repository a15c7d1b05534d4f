package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pavelanni/neetmock/internal/corpus"
	"github.com/pavelanni/neetmock/internal/session"
)

func corpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Show subjects, chapters and question counts",
		RunE:  runCorpus,
	}
	f := cmd.Flags()
	f.StringSliceP("questions", "q", []string{"questions"}, "Corpus files or directories (repeatable)")
	f.Bool("json", false, "Print chapters as JSON")
	addLogFlags(cmd)
	return cmd
}

func runCorpus(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	c, err := corpus.Load(v.GetStringSlice("questions"))
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c.AllChapters())
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAPTER ID\tSUBJECT\tNAME\tQUESTIONS")
	for _, ch := range c.AllChapters() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", ch.ID, ch.Subject, ch.Name, ch.QuestionCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := c.SubjectCounts()
	fmt.Printf("\nTotal questions: %d\n", c.TotalCount())
	for _, q := range session.NEETQuotas {
		status := "ok"
		if counts[q.SubjectKey] < q.Target {
			status = fmt.Sprintf("short by %d", q.Target-counts[q.SubjectKey])
		}
		fmt.Printf("  %-10s %4d (NEET target %d, %s)\n", q.SubjectKey, counts[q.SubjectKey], q.Target, status)
	}

	years := c.YearCounts()
	if len(years) > 0 {
		keys := make([]int, 0, len(years))
		for y := range years {
			keys = append(keys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(keys)))
		fmt.Println("Previous-year questions:")
		for _, y := range keys {
			fmt.Printf("  %d: %d\n", y, years[y])
		}
	}
	return nil
}
