// Package record persists workspace metadata, one YAML file per live or
// trashed workspace. Record files are owned by the service identity so
// unprivileged callers cannot forge expiration or extension counts.
package record

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/commonism/hpc-workspace/internal/wserrors"
)

// Record is the persisted metadata of one workspace.
type Record struct {
	// Workspace is the absolute path of the backing directory.
	Workspace string `yaml:"workspace"`
	// Expiration is the absolute expiry instant in epoch seconds.
	Expiration int64 `yaml:"expiration"`
	// Extensions is the remaining extension count.
	Extensions int `yaml:"extensions"`
	// AcctCode is the accounting code, the primary group at creation time
	// unless overridden by the caller.
	AcctCode string `yaml:"acctcode"`
	// Reminder and MailAddress are notification hints consumed by the
	// external reminder mailer.
	Reminder    int    `yaml:"reminder"`
	MailAddress string `yaml:"mailaddress"`
}

// UseExtension consumes one extension and moves the expiry. The count may
// go negative for administrator overrides; callers enforce the zero floor.
func (r *Record) UseExtension(expiration int64) {
	r.Expiration = expiration
	r.Extensions--
}

// RemainingDays returns the remaining lifetime in whole days at now.
func (r *Record) RemainingDays(now time.Time) int {
	return int((r.Expiration - now.Unix()) / (24 * 3600))
}

// recordFile mirrors Record with pointer fields so absent keys are
// detectable on read. Every key is required; a record missing one was not
// written by this tool and must not be acted upon.
type recordFile struct {
	Workspace   *string `yaml:"workspace"`
	Expiration  *int64  `yaml:"expiration"`
	Extensions  *int    `yaml:"extensions"`
	AcctCode    *string `yaml:"acctcode"`
	Reminder    *int    `yaml:"reminder"`
	MailAddress *string `yaml:"mailaddress"`
}

// Marshal serializes the record to its on-disk YAML form.
func (r *Record) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, wserrors.InternalError("could not serialize workspace record", err)
	}
	return data, nil
}

// Unmarshal parses on-disk YAML, rejecting records with missing keys.
func Unmarshal(path string, data []byte) (*Record, error) {
	var rf recordFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, wserrors.RecordCorrupt(path, err)
	}
	if rf.Workspace == nil || rf.Expiration == nil || rf.Extensions == nil ||
		rf.AcctCode == nil || rf.Reminder == nil || rf.MailAddress == nil {
		return nil, wserrors.RecordCorrupt(path, fmt.Errorf("missing required key"))
	}
	return &Record{
		Workspace:   *rf.Workspace,
		Expiration:  *rf.Expiration,
		Extensions:  *rf.Extensions,
		AcctCode:    *rf.AcctCode,
		Reminder:    *rf.Reminder,
		MailAddress: *rf.MailAddress,
	}, nil
}
