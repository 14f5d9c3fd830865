package benchmark

import (
	"time"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/stats"
)

// Report is a point-in-time summary of a run, suitable for JSON.
type Report struct {
	Config config.Config `json:"config"`
	State  string        `json:"state"`
	Error  string        `json:"error,omitempty"`

	BlocksTransferred       int64   `json:"blocks_transferred"`
	BytesTransferred        int64   `json:"bytes_transferred"`
	BytesTotal              int64   `json:"bytes_total"`
	BytesPlanned            int64   `json:"bytes_planned"`
	PercentComplete         float64 `json:"percent_complete"`
	CompletedSynchronously  int64   `json:"completed_synchronously"`
	CompletedAsynchronously int64   `json:"completed_asynchronously"`
	AverageBytesPerSec      float64 `json:"average_bytes_per_sec"`

	IssueTime         time.Duration `json:"issue_time_ns"`
	WaitTime          time.Duration `json:"wait_time_ns"`
	TransferTime      time.Duration `json:"transfer_time_ns"`
	WallTime          time.Duration `json:"wall_time_ns"`
	CreateFileTime    time.Duration `json:"create_file_time_ns"`
	PreallocationTime time.Duration `json:"preallocation_time_ns"`

	Latency stats.Summary `json:"latency"`
}

// Report summarizes the run. runErr, if any, is the error the task ended
// with.
func (b *Benchmark) Report(runErr error) Report {
	r := Report{
		Config:                  b.cfg,
		State:                   b.State().String(),
		BlocksTransferred:       b.BlocksTransferred(),
		BytesTransferred:        b.BytesTransferred(),
		BytesTotal:              b.BytesTotal(),
		BytesPlanned:            b.BytesPlanned(),
		PercentComplete:         b.PercentComplete(),
		CompletedSynchronously:  b.CompletedSynchronously(),
		CompletedAsynchronously: b.CompletedAsynchronously(),
		AverageBytesPerSec:      b.AverageBytesPerSec(),
		IssueTime:               b.IssueTime(),
		WaitTime:                b.WaitTime(),
		TransferTime:            b.TransferTime(),
		WallTime:                b.WallTime(),
		CreateFileTime:          b.CreateFileTime(),
		PreallocationTime:       b.PreallocationTime(),
		Latency:                 b.latency.Summary(),
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}
