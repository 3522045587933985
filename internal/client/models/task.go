package models

// TaskStatus is the lifecycle state of a tracked download.
type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskDownloading TaskStatus = "downloading"
	TaskComplete    TaskStatus = "complete"
	TaskError       TaskStatus = "error"
)

// DownloadTask is the transient, in-memory progress entry for one download.
// At most one live task exists per file id; a new start replaces the prior
// entry. Progress is a percentage in [0, 100], non-decreasing while the task
// is downloading.
type DownloadTask struct {
	FileID   string
	FileName string
	Progress int
	Status   TaskStatus
	Error    string
}
