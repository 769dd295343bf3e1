package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/bank"
	"github.com/abhisek/levelup/internal/session"
)

type scriptedConsole struct {
	got []string
}

func (c *scriptedConsole) Handle(_ context.Context, _ int64, text string) ([]session.Reply, error) {
	c.got = append(c.got, text)
	return []session.Reply{{Text: "echo " + text, Choices: []string{"1", "2"}}}, nil
}

func TestRunConsole(t *testing.T) {
	c := &scriptedConsole{}
	var out bytes.Buffer
	in := strings.NewReader("/test\n\n  2 \n/quit\nignored\n")

	require.NoError(t, runConsole(context.Background(), c, 1, in, &out, zap.NewNop()))
	assert.Equal(t, []string{"/test", "2"}, c.got)
	assert.Contains(t, out.String(), "echo 2\n[1] [2]")
	assert.Contains(t, out.String(), "/quit - Exit")
}

func TestRunConsole_EOF(t *testing.T) {
	c := &scriptedConsole{}
	var out bytes.Buffer
	require.NoError(t, runConsole(context.Background(), c, 1, strings.NewReader("a"), &out, zap.NewNop()))
	assert.Equal(t, []string{"a"}, c.got)
}

func runtimeCmd(configPath, logLevel string) *cobra.Command {
	c := &cobra.Command{}
	c.Flags().String("config", configPath, "")
	c.Flags().String("bank", "", "")
	c.Flags().String("log-level", logLevel, "")
	return c
}

func TestLoadRuntime_FlagFixesInvalidFileLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEVELUP_LOG_LEVEL", "")
	os.Unsetenv("LEVELUP_LOG_LEVEL")
	require.NoError(t, os.WriteFile("levelup.yaml", []byte("log:\n  level: loud\n"), 0o644))

	_, err := loadRuntime(runtimeCmd("levelup.yaml", ""))
	assert.ErrorContains(t, err, "log.level")

	rt, err := loadRuntime(runtimeCmd("levelup.yaml", "debug"))
	require.NoError(t, err)
	assert.Equal(t, "debug", rt.cfg.Log.Level)
}

func TestFormatFromExt(t *testing.T) {
	assert.Equal(t, "csv", formatFromExt("rows.CSV"))
	assert.Equal(t, "json", formatFromExt("rows.json"))
	assert.Equal(t, "json", formatFromExt("rows"))
}

func TestReadRows(t *testing.T) {
	rows, unreadable, err := readRows(strings.NewReader("id,s,t,q,a,e,r\n1,S,T,Q,,E,R\n"), "csv", true)
	require.NoError(t, err)
	assert.Empty(t, unreadable)
	require.Len(t, rows, 1)
	assert.Equal(t, "Q", rows[0][3])

	rows, unreadable, err = readRows(strings.NewReader(`[[["h"],["1","S","T","Q","","E"],[[1],"S","T","Q","","E"]]]`), "json", true)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	require.Len(t, unreadable, 1)
	assert.Equal(t, 1, unreadable[0].Row)

	_, _, err = readRows(strings.NewReader(""), "xml", false)
	assert.ErrorContains(t, err, "unknown format")
}

func TestWriteBankCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "questions.json")
	qs := []bank.Question{{ID: "1", Section: "Grammar", Question: "Q", Options: []string{"a", "b"}, Correct: bank.IndexAnswer(1)}}
	require.NoError(t, writeBank(path, qs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	b, err := bank.Parse(f, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	q, _ := b.At(0)
	assert.Equal(t, 1, q.Correct.Index)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Грам...", truncate("Грамматика", 7))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "levelup (devel)\n", out.String())
}
