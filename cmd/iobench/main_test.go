package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runningwild/iobench/pkg/benchmark"
	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/results"
)

func execute(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	a := &app{}
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), a, err
}

func TestApplyOp(t *testing.T) {
	cases := []struct {
		code     string
		pattern  config.AccessPattern
		op       config.Operation
		perBlock bool
	}{
		{"rr", config.Random, config.Read, false},
		{"rw", config.Random, config.Write, false},
		{"sr", config.Sequential, config.Read, false},
		{"sw", config.Sequential, config.Write, false},
		{"fr", config.Sequential, config.Read, true},
		{"FW", config.Sequential, config.Write, true},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			b := config.NewBuilder()
			require.NoError(t, applyOp(b, tc.code, 32))
			cfg := b.Build()
			assert.Equal(t, tc.pattern, cfg.AccessPattern)
			assert.Equal(t, tc.op, cfg.Operation)
			assert.Equal(t, tc.perBlock, cfg.FilePerBlock)
			if tc.perBlock {
				assert.Equal(t, 32, cfg.Blocks)
			}
		})
	}

	assert.Error(t, applyOp(config.NewBuilder(), "xx", 1))
}

func TestBlocksForFileSize(t *testing.T) {
	n, err := blocksForFileSize(64, 1024)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	n, err = blocksForFileSize(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 256, n)

	_, err = blocksForFileSize(1, 3)
	assert.ErrorContains(t, err, "not a multiple")
	_, err = blocksForFileSize(0, 4)
	assert.Error(t, err)
	_, err = blocksForFileSize(1, 0)
	assert.Error(t, err)
}

func TestFlagsMutuallyExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")

	_, _, err := execute(t, "fio-job", "--file-size", "4", "--blocks", "4", path)
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = execute(t, "fio-job", "--prealloc", "--fast-prealloc", path)
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = execute(t, "fio-job")
	assert.ErrorContains(t, err, "path is required")
}

func TestFioJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	out, _, err := execute(t, "fio-job",
		"--op", "rr", "--block-size", "4", "--file-size", "1",
		"--async", "--async-engine", "uring", "--max-outstanding", "16",
		"--tag", "random reads", path)
	require.NoError(t, err)

	assert.Contains(t, out, "ioengine=io_uring\n")
	assert.Contains(t, out, "filename="+path+"\n")
	assert.Contains(t, out, "bs=4096\n")
	assert.Contains(t, out, "size=1048576\n")
	assert.Contains(t, out, "rw=randread\n")
	assert.Contains(t, out, "iodepth=16\n")
	assert.True(t, strings.HasSuffix(out, "[random_reads]\n"), out)
}

func TestWriteAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	saved := filepath.Join(dir, "run.yaml")

	_, _, err := execute(t, "fio-job", "--op", "sr", "--blocks", "8", "--block-size", "8",
		"--read-verify", "--write-config", saved, target)
	require.NoError(t, err)

	cfg, err := config.Load(saved)
	require.NoError(t, err)
	assert.Equal(t, config.Read, cfg.Operation)
	assert.Equal(t, 8, cfg.Blocks)
	assert.Equal(t, 8*config.KiB, cfg.BlockSizeBytes)
	assert.True(t, cfg.ReadVerify)

	other := filepath.Join(dir, "other")
	out, _, err := execute(t, "fio-job", "--config", saved, other)
	require.NoError(t, err)
	assert.Contains(t, out, "filename="+other+"\n")
	assert.Contains(t, out, "rw=read\n")
}

func TestInvalidConfigurationIsNotRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	_, _, err := execute(t, "--block-size", "3", "--blocks", "4", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInvalidConfig))
	assert.NoFileExists(t, path)
}

func TestRunWritesResultsAndReport(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	resultsPath := filepath.Join(dir, "results.tsv")
	reportPath := filepath.Join(dir, "report.json")

	for range 2 {
		out, _, err := execute(t, "--op", "sw", "--blocks", "8", "--block-size", "4",
			"--tag", "smoke", "--results", resultsPath, "--json-report", reportPath, target)
		require.NoError(t, err)
		assert.Contains(t, out, "Average goodput")
	}

	fi, err := os.Stat(target)
	require.NoError(t, err)
	assert.EqualValues(t, 8*4*config.KiB, fi.Size())

	data, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(results.Header, "\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "smoke\t"))

	var rep benchmark.Report
	data, err = os.ReadFile(reportPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "Completed", rep.State)
	assert.EqualValues(t, 8, rep.BlocksTransferred)
	assert.Empty(t, rep.Error)

	// Reading it back with verification succeeds on the counter pattern.
	_, _, err = execute(t, "--op", "sr", "--blocks", "8", "--block-size", "4", "--read-verify", target)
	require.NoError(t, err)
}

func TestResultsTagComesFromConfigName(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	saved := filepath.Join(dir, "run.yaml")
	resultsPath := filepath.Join(dir, "results.tsv")

	cfg := config.NewBuilder().Named("from\tfile").File(target).Blocks(4).WithBlockSize(4 * config.KiB).Build()
	require.NoError(t, config.Save(saved, &cfg))

	_, _, err := execute(t, "--config", saved, "--results", resultsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "from file\t"), lines[1])
}

func TestReportFailureLogsHelp(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	err := &benchmark.Error{
		Kind: benchmark.KindOpen,
		Msg:  "Unable to open file",
		Help: "Check the path.",
		Err:  os.ErrNotExist,
	}
	reportFailure(zap.New(core), err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Help info: Check the path.", entries[1].Message)
}

func TestAppendCrashDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), crashDumpName)

	got, err := appendCrashDump(path, errors.New("first"))
	require.NoError(t, err)
	assert.Equal(t, path, got)
	_, err = appendCrashDump(path, errors.New("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "==== "), string(data))
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}
