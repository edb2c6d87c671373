package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *stubLogger) Printf(_ context.Context, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, v...))
}

func (l *stubLogger) Println(_ context.Context, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *stubLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// writeReports creates <dir>/part-<i>.txt for every content and returns the
// matching template.
func writeReports(t *testing.T, contents ...string) ReportTemplate {
	t.Helper()

	dir := t.TempDir()
	for i, content := range contents {
		path := filepath.Join(dir, fmt.Sprintf("part-%d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	tpl, err := ParseTemplate(filepath.Join(dir, "part-{}"))
	require.NoError(t, err)
	return tpl
}
