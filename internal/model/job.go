package model

import "time"

// JobName enumerates the background operations.
type JobName string

const (
	JobSyncProgrammes     JobName = "SYNC_PROGRAMMES"
	JobSyncDepartments    JobName = "SYNC_DEPARTMENTS"
	JobSyncBatchYears     JobName = "SYNC_BATCH_YEARS"
	JobMoveToNextSemester JobName = "MOVE_TO_NEXT_SEMESTER"
	JobMailNotification   JobName = "MAIL_NOTIFICATION"
)

// JobStatus is the lifecycle of a Job.
type JobStatus string

const (
	JobNotStarted JobStatus = "NotStarted"
	JobInProgress JobStatus = "InProgress"
	JobCompleted  JobStatus = "Completed"
	JobErrored    JobStatus = "Errored"
)

// Terminal reports whether the job will change no further.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobErrored
}

// Job tracks one long-running operation. Jobs are never deleted.
type Job struct {
	ID                   string     `bson:"_id" json:"id"`
	Name                 JobName    `bson:"name" json:"name"`
	Status               JobStatus  `bson:"status" json:"status"`
	Dates                JobDates   `bson:"dates" json:"dates"`
	CompletionPercentage int        `bson:"completionPercentage" json:"completion_percentage"`
	RecordCount          int        `bson:"recordCount" json:"record_count"`
	Summary              JobSummary `bson:"summary" json:"summary"`
	Reason               string     `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedBy            string     `bson:"createdBy,omitempty" json:"created_by,omitempty"`
}

// JobDates lifecycle timestamps.
type JobDates struct {
	Created  time.Time  `bson:"created" json:"created"`
	Started  *time.Time `bson:"started,omitempty" json:"started,omitempty"`
	Finished *time.Time `bson:"finished,omitempty" json:"finished,omitempty"`
}

// JobSummary holds counts for sync jobs and recipient lists for mail jobs.
type JobSummary struct {
	Inserted int64    `bson:"inserted" json:"inserted"`
	Modified int64    `bson:"modified" json:"modified"`
	Removed  int64    `bson:"removed" json:"removed"`
	Matched  int64    `bson:"matched" json:"matched"`
	Success  []string `bson:"success,omitempty" json:"success,omitempty"`
	Failed   []string `bson:"failed,omitempty" json:"failed,omitempty"`
}

// JobFilter narrows List.
type JobFilter struct {
	Name     JobName
	Status   JobStatus
	Page     int
	PageSize int
}
