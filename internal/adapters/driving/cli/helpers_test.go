package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type mockKnowledgeService struct {
	addReq     driving.AddRequest
	addResult  *driving.AddResult
	addErr     error
	rebuilt    int
	lastQuery  domain.SearchQuery
	entries    []domain.Entry
	categories []string
}

func (m *mockKnowledgeService) Add(_ context.Context, req driving.AddRequest) (*driving.AddResult, error) {
	m.addReq = req
	if m.addErr != nil {
		return nil, m.addErr
	}
	if m.addResult != nil {
		return m.addResult, nil
	}
	return &driving.AddResult{
		Path:        "gpt/20240102_030405_note.md",
		Fingerprint: "abc123",
		Rebuild:     &domain.RebuildReport{Indexed: 1},
	}, nil
}

func (m *mockKnowledgeService) Rebuild(_ context.Context) (*domain.RebuildReport, error) {
	m.rebuilt++
	return &domain.RebuildReport{
		Indexed: len(m.entries),
		Skipped: []*domain.ItemError{domain.NewParseError("gpt/bad.md", errors.New("no header"))},
	}, nil
}

func (m *mockKnowledgeService) Search(_ context.Context, q domain.SearchQuery) ([]domain.Entry, error) {
	m.lastQuery = q
	return m.entries, nil
}

func (m *mockKnowledgeService) Categories(_ context.Context) ([]string, error) {
	return m.categories, nil
}

type mockSettingsService struct {
	notion domain.NotionSettings
	values []driving.SettingValue
	set    map[string]string
	setErr error
}

func (m *mockSettingsService) StoreRoot() string { return "kb" }

func (m *mockSettingsService) Notion() domain.NotionSettings { return m.notion }

func (m *mockSettingsService) Sync() domain.SyncSettings { return domain.DefaultSyncSettings() }

func (m *mockSettingsService) Values() []driving.SettingValue { return m.values }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

type mockSyncService struct {
	opts    domain.SyncOptions
	entries []domain.Entry
	failed  []*domain.ItemError
	report  *domain.SyncReport
	err     error
	runs    []domain.SyncRun
	closed  bool
}

func (m *mockSyncService) SyncStore(_ context.Context, opts domain.SyncOptions) (*domain.SyncReport, error) {
	m.opts = opts
	return m.result(opts), m.err
}

func (m *mockSyncService) SyncEntries(_ context.Context, entries []domain.Entry, failed []*domain.ItemError, opts domain.SyncOptions) (*domain.SyncReport, error) {
	m.opts = opts
	m.entries = entries
	m.failed = failed
	report := m.result(opts)
	for i := range entries {
		report.Add(domain.SyncResult{
			Title:    entries[i].Title,
			Decision: domain.DecisionCreate,
			State:    domain.SyncDone,
			DryRun:   opts.DryRun,
		})
	}
	for _, f := range failed {
		report.Add(domain.SyncResult{Filename: f.Path, State: domain.SyncFailed, Err: f})
	}
	return report, m.err
}

func (m *mockSyncService) History(_ context.Context, _ int) ([]domain.SyncRun, error) {
	return m.runs, nil
}

func (m *mockSyncService) Run(_ context.Context, runID string) (*domain.SyncRun, error) {
	for i := range m.runs {
		if m.runs[i].ID == runID {
			return &m.runs[i], nil
		}
	}
	return nil, fmt.Errorf("sync run %s: %w", runID, domain.ErrNotFound)
}

func (m *mockSyncService) result(opts domain.SyncOptions) *domain.SyncReport {
	if m.report != nil {
		return m.report
	}
	return &domain.SyncReport{RunID: "run-1", DryRun: opts.DryRun}
}

func validNotion() domain.NotionSettings {
	s := domain.DefaultNotionSettings()
	s.Token = "secret_abcdefghijkl"
	s.DatabaseID = "db-1"
	return s
}

// serviceCalls counts how often each service factory was invoked.
type serviceCalls struct {
	knowledge int
	sync      int
	history   int
}

// setupServices installs mocks and restores the previous services afterwards.
func setupServices(t *testing.T) (*mockKnowledgeService, *mockSettingsService, *mockSyncService, *serviceCalls) {
	t.Helper()
	oldKnowledge, oldSettings := knowledgeServiceFactory, settingsService
	oldSync, oldHistory := syncServiceFactory, historyServiceFactory

	k := &mockKnowledgeService{}
	s := &mockSettingsService{notion: validNotion()}
	sy := &mockSyncService{}
	calls := &serviceCalls{}
	SetServices(Services{
		Settings: s,
		Knowledge: func() (driving.KnowledgeService, error) {
			calls.knowledge++
			return k, nil
		},
		Sync: func() (driving.SyncService, func() error, error) {
			calls.sync++
			return sy, func() error { sy.closed = true; return nil }, nil
		},
		History: func() (driving.SyncService, func() error, error) {
			calls.history++
			return sy, func() error { sy.closed = true; return nil }, nil
		},
	})

	t.Cleanup(func() {
		knowledgeServiceFactory, settingsService = oldKnowledge, oldSettings
		syncServiceFactory, historyServiceFactory = oldSync, oldHistory
	})
	return k, s, sy, calls
}

// execute runs the root command and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func entryAt(category, title string, created time.Time) domain.Entry {
	return domain.Entry{
		Category:  category,
		Title:     title,
		CreatedAt: domain.NewTimestamp(created),
		Filename:  category + "/" + created.Format(domain.EntryIDLayout) + ".md",
	}
}
