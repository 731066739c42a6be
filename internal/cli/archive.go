package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tOgg1/afk/internal/archive"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/loop"
)

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveNowCmd)
	archiveCmd.AddCommand(archiveClearCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return archiveListCmd.RunE(cmd, args)
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		entries, err := newArchiver(cfg).List()
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []archive.Entry{}
		}
		return WriteOutput(cmd.OutOrStdout(), archiveList(entries))
	},
}

var archiveNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Archive the current session and start fresh",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}

		meta := archive.Metadata{Reason: archive.ReasonManual}
		progress, err := loop.LoadProgress(cfg.Paths.ProgressFile)
		if err != nil {
			logger.Warn().Err(err).Msg("progress file unreadable, archiving without session details")
		}
		if progress != nil {
			meta.SessionID = progress.SessionID
			meta.Branch = progress.Branch
			meta.Iterations = progress.Iterations
			meta.TasksCompleted = progress.TasksCompleted
		}
		store := newTaskStore(cfg)
		if list, err := store.Load(cmd.Context()); err == nil {
			meta.TasksPending = len(list.Pending())
		}

		path, err := newArchiver(cfg).Archive(meta)
		if err != nil {
			return err
		}
		return WriteOutput(cmd.OutOrStdout(), archiveResult{Path: path})
	},
}

var archiveClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the current session's progress without archiving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		if err := newArchiver(cfg).Clear(); err != nil {
			return err
		}
		return WriteOutput(cmd.OutOrStdout(), archiveResult{Cleared: true})
	},
}

func newArchiver(cfg *config.Config) *archive.Archiver {
	return archive.New(cfg.Archive.Directory, cfg.Paths.ProgressFile, cfg.Paths.TasksFile)
}

type archiveList []archive.Entry

func (l archiveList) RenderHuman(out io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(out, "No archived sessions.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREASON\tITERATIONS\tCOMPLETED\tPENDING\tBRANCH")
	for _, e := range l {
		branch := e.Branch
		if branch == "" {
			branch = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", e.Name, e.Reason, e.Iterations, e.TasksCompleted, e.TasksPending, branch)
	}
	return tw.Flush()
}

type archiveResult struct {
	Path    string `json:"path,omitempty"`
	Cleared bool   `json:"cleared,omitempty"`
}

func (r archiveResult) RenderHuman(out io.Writer) error {
	if r.Cleared {
		_, err := fmt.Fprintln(out, "Session progress cleared.")
		return err
	}
	_, err := fmt.Fprintf(out, "Session archived to %s\n", r.Path)
	return err
}
