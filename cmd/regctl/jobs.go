package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
)

// waitJob blocks until the runner is idle and reports the job's outcome. An
// errored job is returned as an error so the process exits non-zero.
func waitJob(ctx context.Context, w io.Writer, svc *service.Service, job *model.Job) error {
	fmt.Fprintf(w, "job %s (%s) started\n", job.ID, job.Name)
	svc.Runner.Wait()

	done, err := svc.Job.Get(ctx, job.ID)
	if err != nil {
		return err
	}
	printSummary(w, &done.Job)
	if done.Status == model.JobErrored {
		return fmt.Errorf("job %s failed: %s", done.ID, done.Reason)
	}
	return nil
}

func printSummary(w io.Writer, job *model.Job) {
	s := job.Summary
	fmt.Fprintf(w, "status:   %s\n", job.Status)
	fmt.Fprintf(w, "inserted: %d\n", s.Inserted)
	fmt.Fprintf(w, "modified: %d\n", s.Modified)
	fmt.Fprintf(w, "matched:  %d\n", s.Matched)
	fmt.Fprintf(w, "removed:  %d\n", s.Removed)
	if len(s.Success) > 0 {
		fmt.Fprintf(w, "success:  %s\n", strings.Join(s.Success, ", "))
	}
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "failed:   %s\n", strings.Join(s.Failed, ", "))
	}
}
