// Package download retrieves media bytes for a fetch plan and writes them to a file.
package download

// Sink receives progress signals from the executor. Units are bytes for
// progressive plans and segments for segmented plans. Calls never overlap but
// may arrive from a goroutine other than the one running Execute.
type Sink interface {
	// SetTotal announces the expected number of units. It is not called when
	// the total is unknown.
	SetTotal(total int64)
	// Advance records n more completed units.
	Advance(n int64)
	// Finish marks the end of the download, successful or not.
	Finish()
}

// NopSink discards every progress signal.
type NopSink struct{}

func (NopSink) SetTotal(int64) {}
func (NopSink) Advance(int64)  {}
func (NopSink) Finish()        {}
