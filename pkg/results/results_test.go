package results

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iobench/pkg/benchmark"
	"github.com/runningwild/iobench/pkg/config"
)

func readTSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.tsv")
	row := Row{Tag: "a", Config: config.Default(), TransferTime: 1500 * time.Millisecond}

	require.NoError(t, Append(path, row))
	require.NoError(t, Append(path, row))
	require.NoError(t, Append(path, row))

	rows := readTSV(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	for _, r := range rows[1:] {
		assert.Len(t, r, len(Header))
		assert.Equal(t, "1500", r[15])
	}
}

func TestHeaderWrittenToEmptyExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.tsv")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, Append(path, Row{Config: config.Default()}))
	rows := readTSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
}

func TestRecordColumns(t *testing.T) {
	write := Row{
		Tag:    "night\trun",
		Config: config.NewBuilder().Randomly().Blocks(64).WithBlockSize(8 * config.KiB).Asynchronously().NoBuffering().Preallocated().Build(),
	}
	rec := write.Record()
	assert.Equal(t, "night run", rec[0])
	assert.Equal(t, "Random", rec[1])
	assert.Equal(t, "Write", rec[2])
	assert.Equal(t, "false", rec[3])
	assert.Equal(t, "64", rec[4])
	assert.Equal(t, "8", rec[5])
	assert.Equal(t, "8", rec[6])
	assert.Equal(t, "N/A", rec[7])
	assert.Equal(t, "Async", rec[8])
	assert.Equal(t, "NoBuffering", rec[9])
	assert.Equal(t, "NoWriteThrough", rec[10])
	assert.Equal(t, "N/A", rec[11])
	assert.Equal(t, "true", rec[12])

	read := Row{Config: config.NewBuilder().Read().Verified().Build()}
	rec = read.Record()
	assert.Equal(t, "Verified", rec[7])
	assert.Equal(t, "Sync", rec[8])
	assert.Equal(t, "N/A", rec[12])
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	rep := benchmark.Report{Config: config.Default(), State: "Completed", BlocksTransferred: 7}
	require.NoError(t, WriteReport(path, rep))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Completed", got["state"])
	assert.EqualValues(t, 7, got["blocks_transferred"])
}
