package model

import "time"

// RawEntry is a single interval as reported by the local time tracker.
type RawEntry struct {
	ID         string     `json:"id"`
	Start      time.Time  `json:"start"`
	End        *time.Time `json:"end"`
	Tags       []string   `json:"tags"`
	Annotation *string    `json:"annotation"`
}

// HasTag reports whether the entry carries tag.
func (e RawEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WorkUnit is a RawEntry that passed filtering, with its ticket key extracted.
type WorkUnit struct {
	EntryID     string
	Ticket      string
	Start       time.Time
	Duration    time.Duration
	Description string
}

// PendingUpload is one worklog line presented for confirmation and uploaded.
type PendingUpload struct {
	Ordinal     int
	EntryID     string
	Ticket      string
	Start       time.Time
	Duration    time.Duration
	Description string
}

// UploadResult is the outcome of uploading a single PendingUpload.
// Err is nil when the upload succeeded.
type UploadResult struct {
	Upload   PendingUpload
	RemoteID string
	Err      error
}

// Succeeded reports whether the upload was accepted by the remote service.
func (r UploadResult) Succeeded() bool {
	return r.Err == nil
}
