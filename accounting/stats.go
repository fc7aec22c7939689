// Package accounting keeps the statistics for one transfer run.
package accounting

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Stats counts the progress of a run.
//
// All fields are guarded by lock so a Stats may be shared by every
// worker in a run.
type Stats struct {
	lock         sync.RWMutex
	start        time.Time
	total        int64
	transfers    int64
	skips        int64
	errors       int64
	bytes        int64
	lastError    error
	transferring map[string]struct{}
}

// NewStats creates a Stats for a run over total objects.
func NewStats(total int64) *Stats {
	return &Stats{
		start:        time.Now(),
		total:        total,
		transferring: make(map[string]struct{}),
	}
}

// SetTotal sets the total number of objects in the run once the
// listing is known.
func (s *Stats) SetTotal(total int64) {
	s.lock.Lock()
	s.total = total
	s.lock.Unlock()
}

// Transferring adds a transfer into the in-flight set
func (s *Stats) Transferring(remote string) {
	s.lock.Lock()
	s.transferring[remote] = struct{}{}
	s.lock.Unlock()
}

// DoneTransferring removes a transfer from the in-flight set, counting
// it as transferred if ok is set.
func (s *Stats) DoneTransferring(remote string, ok bool) {
	s.lock.Lock()
	delete(s.transferring, remote)
	if ok {
		s.transfers++
	}
	s.lock.Unlock()
}

// Bytes updates the byte counter
func (s *Stats) Bytes(bytes int64) {
	s.lock.Lock()
	s.bytes += bytes
	s.lock.Unlock()
}

// Skip counts one object skipped
func (s *Stats) Skip() {
	s.lock.Lock()
	s.skips++
	s.lock.Unlock()
}

// Error counts one failed object and remembers the error
func (s *Stats) Error(err error) {
	s.lock.Lock()
	s.errors++
	s.lastError = err
	s.lock.Unlock()
}

// GetTransfers returns the number of objects transferred
func (s *Stats) GetTransfers() int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.transfers
}

// GetSkips returns the number of objects skipped
func (s *Stats) GetSkips() int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.skips
}

// GetErrors returns the number of objects that failed
func (s *Stats) GetErrors() int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.errors
}

// GetLastError returns the last error seen, or nil
func (s *Stats) GetLastError() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastError
}

// Done returns the number of objects finished one way or another
func (s *Stats) Done() int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.transfers + s.skips + s.errors
}

// Errored returns whether any object failed
func (s *Stats) Errored() bool {
	return s.GetErrors() != 0
}

// String convert the Stats to a string for printing
func (s *Stats) String() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	dt := time.Since(s.start)
	speed := 0.0
	if dt > 0 {
		speed = float64(s.bytes) / dt.Seconds()
	}
	dtRounded := dt - (dt % (time.Second / 10))
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, `
Transferred:   %10s (%s/s)
Errors:        %10d
Skipped:       %10d
Transferred:   %10d / %d
Elapsed time:  %10v
`,
		humanize.IBytes(uint64(s.bytes)), humanize.IBytes(uint64(speed)),
		s.errors,
		s.skips,
		s.transfers, s.total,
		dtRounded)
	if len(s.transferring) > 0 {
		keys := make([]string, 0, len(s.transferring))
		for key := range s.transferring {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Fprintf(buf, "Transferring:  %s\n", strings.Join(keys, ", "))
	}
	return buf.String()
}

// Log outputs the Stats to the logger
func (s *Stats) Log() {
	logrus.Infof("%v\n", s)
}
