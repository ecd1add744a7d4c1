package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", "testdata/none.env"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCategoryList(t *testing.T) {
	out, err := run(t, "category", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "internet_phone")
	assert.Contains(t, out, "網路/電話")
}

func TestCategoryDisable(t *testing.T) {
	out, err := run(t, "category", "disable", "transport")
	require.NoError(t, err)
	assert.Contains(t, out, "transport (交通) active=false")

	_, err = run(t, "category", "enable", "pets")
	assert.Error(t, err)
}

func TestExportToStdout(t *testing.T) {
	out, err := run(t, "export", "--type", "repayments", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "\ufeff日期,金額\n", out)

	_, err = run(t, "export", "--type", "pdf")
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	out, err := run(t, "export", "--type", "combined", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 0 rows written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\ufeff類型,日期,類別,名稱,金額\n", string(data))

	_, err = run(t, "export", "-o", filepath.Join(t.TempDir(), "missing", "out.csv"))
	assert.ErrorContains(t, err, "create")
}

type renderFunc func(io.Writer) error

func (f renderFunc) Render(w io.Writer) error { return f(w) }

func TestWriteExportFileReportsCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	err := writeExportFile(path, renderFunc(func(w io.Writer) error {
		_, err := io.WriteString(w, "x")
		return err
	}))
	require.NoError(t, err)

	err = writeExportFile(path, renderFunc(func(io.Writer) error { return errors.New("disk full") }))
	assert.ErrorContains(t, err, "disk full")

	err = writeExportFile(path, renderFunc(func(w io.Writer) error {
		return w.(io.Closer).Close()
	}))
	assert.ErrorContains(t, err, "close "+path)
}

func TestWatchNeedsBroker(t *testing.T) {
	_, err := run(t, "watch")
	assert.EqualError(t, err, "watch needs AMQP_URL")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "postgres backend")
}
