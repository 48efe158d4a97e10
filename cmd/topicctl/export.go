package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"topicgrid/internal/export"
	"topicgrid/internal/prompt"
)

var (
	exportFormat string
	exportFlow   string
	exportTopic  string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Render a topic list (one per line) as txt, csv or json",
	Long: `export reads topics one per line from file, or stdin when no file is given,
and writes them in the chosen format. Without --out the file name follows
the gateway's naming scheme in the current directory.`,
	Example: `  topicctl topics "home coffee" -s domain=espresso | sed 's/^ *[0-9]*\. //' | topicctl export --format csv`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		topics, err := readLines(in)
		if err != nil {
			return err
		}
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		flow, ok := prompt.ParseFlow(exportFlow)
		if !ok {
			return fmt.Errorf("unknown flow %q", exportFlow)
		}
		doc := export.Document{Flow: flow, Topic: exportTopic, Topics: topics}
		body, err := export.Render(f, doc)
		if err != nil {
			return err
		}
		if exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		path := exportOut
		if path == "" {
			path = export.FileName(f, doc, time.Now())
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d topics to %s\n", len(topics), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "txt", "txt, csv or json")
	exportCmd.Flags().StringVarP(&exportFlow, "flow", "f", string(prompt.FlowDWHY), "flow the topics came from (changes the txt layout)")
	exportCmd.Flags().StringVarP(&exportTopic, "topic", "t", "", "core topic recorded in the file")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", `output path; "-" writes to stdout`)
	rootCmd.AddCommand(exportCmd)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
