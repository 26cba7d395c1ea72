package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"groundwork/adapters/export"
	"groundwork/adapters/ollama"
	"groundwork/internal/artifact"
	"groundwork/internal/jobapp"
)

var jobappFlags struct {
	jobPath     string
	resumePath  string
	coverLetter bool
	format      string
}

var jobappCmd = &cobra.Command{
	Use:   "jobapp",
	Short: "Tailor a resume to a job description",
	Long: `Analyze the match between a resume and a job description, rewrite the
resume to target the role, and optionally write a cover letter. Generated
documents are checked for machine readability before acceptance.`,
	RunE: runJobapp,
}

func init() {
	f := jobappCmd.Flags()
	f.StringVar(&jobappFlags.jobPath, "job", "", "Path to the job description text file")
	f.StringVar(&jobappFlags.resumePath, "resume", "", "Path to the resume text file")
	f.BoolVar(&jobappFlags.coverLetter, "cover-letter", false, "Also write a cover letter")
	f.StringVar(&jobappFlags.format, "format", "txt", "Output format (txt, markdown, html)")
	addModelFlags(f)
}

func runJobapp(cmd *cobra.Command, args []string) error {
	if jobappFlags.jobPath == "" || jobappFlags.resumePath == "" {
		return fmt.Errorf("both --job and --resume are required")
	}
	job, err := os.ReadFile(jobappFlags.jobPath)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}
	resume, err := os.ReadFile(jobappFlags.resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}

	obs, writer := setupRun("jobapp")
	state, record, err := jobapp.Run(cmd.Context(), string(job), string(resume),
		jobappFlags.coverLetter, ollama.New(""), genOptions(), obs)
	if err != nil {
		return err
	}

	if err := writeDoc(cmd, writer, "adjusted_resume", state.GetString(jobapp.FieldTailored)); err != nil {
		return err
	}
	if jobappFlags.coverLetter {
		if err := writeDoc(cmd, writer, "cover_letter", state.GetString(jobapp.FieldCoverLetter)); err != nil {
			return err
		}
	}
	reportRun(cmd, record)
	return nil
}

func writeDoc(cmd *cobra.Command, writer *artifact.Writer, prefix, text string) error {
	out, err := export.New().Export(context.Background(), text, jobappFlags.format)
	if err != nil {
		return err
	}
	ext := jobappFlags.format
	switch ext {
	case "", "text":
		ext = "txt"
	case "markdown":
		ext = "md"
	}
	path, err := writer.Write(prefix, ext, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
