package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bool) {
	t.Helper()
	opened := false
	out := &bytes.Buffer{}
	app := NewApp().WithOutput(out)
	app.loadConfig = func(string) (*config.Config, error) {
		return &config.Config{Log: config.LogConfig{Level: "error", Format: "console"}}, nil
	}
	app.openServices = func(context.Context, *config.Config, *zap.Logger) (*service.Service, func(), error) {
		opened = true
		return nil, nil, errors.New("stores unavailable")
	}
	return app, out, &opened
}

func TestSync_RequiresFile(t *testing.T) {
	app, _, opened := newTestApp(t)

	err := app.ExecuteWithArgs(context.Background(), []string{"sync", "programmes"})
	if err == nil || !strings.Contains(err.Error(), "file") {
		t.Errorf("expected a missing flag error, got %v", err)
	}
	if *opened {
		t.Error("stores should not be opened")
	}
}

func TestSync_UnreadableFile(t *testing.T) {
	app, _, opened := newTestApp(t)

	err := app.ExecuteWithArgs(context.Background(), []string{"sync", "departments", "--file", filepath.Join(t.TempDir(), "missing.json")})
	if err == nil || !strings.Contains(err.Error(), "missing.json") {
		t.Errorf("expected a read error naming the file, got %v", err)
	}
	if *opened {
		t.Error("stores should not be opened before the file is read")
	}
}

func TestSync_OpensStores(t *testing.T) {
	app, _, opened := newTestApp(t)
	path := filepath.Join(t.TempDir(), "departments.json")
	if err := os.WriteFile(path, []byte(`[{"id":"d-1","name":"CSE"}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	err := app.ExecuteWithArgs(context.Background(), []string{"sync", "departments", "-f", path})
	if err == nil || err.Error() != "stores unavailable" {
		t.Errorf("expected the store error, got %v", err)
	}
	if !*opened {
		t.Error("stores should be opened")
	}
}

func TestRollover_ConfigError(t *testing.T) {
	app, _, opened := newTestApp(t)
	app.loadConfig = func(string) (*config.Config, error) {
		return nil, errors.New("config: auth.jwt_secret must not be empty")
	}

	if err := app.ExecuteWithArgs(context.Background(), []string{"rollover"}); err == nil {
		t.Error("expected the config error")
	}
	if *opened {
		t.Error("stores should not be opened")
	}
}

func TestNotifyFlag_SetsActorEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	_ = app.ExecuteWithArgs(context.Background(), []string{"--notify", "ops@college.edu", "rollover"})
	if app.actor.Email != "ops@college.edu" || app.actor.ID != "regctl" {
		t.Errorf("unexpected actor %+v", app.actor)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &model.Job{
		Status:  model.JobCompleted,
		Summary: model.JobSummary{Inserted: 2, Removed: 1, Failed: []string{"a@college.edu"}},
	})

	out := buf.String()
	for _, want := range []string{"inserted: 2", "removed:  1", "failed:   a@college.edu"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "success:") {
		t.Error("empty success list should be omitted")
	}
}
