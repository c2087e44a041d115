package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/inkpress/inkpress/internal/client/sync"
	"github.com/inkpress/inkpress/internal/inksdk"
)

func printRoundSummary(w io.Writer, s *sync.RoundSummary) {
	took := s.Took.Round(time.Millisecond)
	if s.InSync() {
		fmt.Fprintf(w, "in sync at %s (%s)\n", s.ShortCommit(), took)
		return
	}

	fmt.Fprintf(w, "synced to %s in %s\n", s.ShortCommit(), took)
	if s.Uploaded > 0 {
		fmt.Fprintf(w, "  pushed    %d file(s), %s\n", s.Uploaded, humanize.Bytes(uint64(s.UploadBytes)))
	}
	if s.DeletesPushed > 0 {
		fmt.Fprintf(w, "  deleted   %d file(s) on the server\n", s.DeletesPushed)
	}
	if s.Downloaded > 0 {
		fmt.Fprintf(w, "  pulled    %d file(s), %s\n", s.Downloaded, humanize.Bytes(uint64(s.DownloadBytes)))
	}
	if s.DeletesPulled > 0 {
		fmt.Fprintf(w, "  removed   %d local file(s)\n", s.DeletesPulled)
	}
	for _, c := range s.Conflicts {
		fmt.Fprintf(w, "  conflict  %s (%s)\n", c.Path, c.Reason)
	}
}

func printLocalChanges(w io.Writer, c *sync.LocalChanges) {
	fmt.Fprintln(w, "local changes:")
	if c.Empty() {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, p := range c.Added {
		fmt.Fprintf(w, "  added     %s\n", p)
	}
	for _, p := range c.Modified {
		fmt.Fprintf(w, "  modified  %s\n", p)
	}
	for _, p := range c.Deleted {
		fmt.Fprintf(w, "  deleted   %s\n", p)
	}
}

func printPlan(w io.Writer, plan *inksdk.SyncStatusResponse) {
	fmt.Fprintln(w, "next sync:")
	if plan.InSync() {
		fmt.Fprintln(w, "  up to date")
		return
	}
	for _, p := range plan.ToUpload {
		fmt.Fprintf(w, "  push      %s\n", p)
	}
	for _, p := range plan.ToDeleteLocal {
		fmt.Fprintf(w, "  delete    %s (on the server)\n", p)
	}
	for _, p := range plan.ToDownload {
		fmt.Fprintf(w, "  pull      %s\n", p)
	}
	for _, p := range plan.ToDeleteRemote {
		fmt.Fprintf(w, "  remove    %s (deleted on the server)\n", p)
	}
}
