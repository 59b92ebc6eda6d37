package repository

import (
	"errors"
	"fmt"

	"github.com/GoPolymarket/schemascope/internal/reqctx"
	"gorm.io/gorm"
)

const recorderCallbackPrefix = "schemascope:record_resource:"

var record = reqctx.Record

// AttachRecorder makes every gorm operation record its table into the request
// scope carried by the statement context. Attaching twice changes nothing.
// The callback runs after the operation and never touches db.Error.
func AttachRecorder(db *gorm.DB) error {
	if db == nil {
		return errors.New("attach recorder: nil db")
	}
	cb := db.Callback()
	hooks := []struct {
		op  string
		get func(string) func(*gorm.DB)
		add func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Get, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Get, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Get, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Get, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Get, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Get, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		name := recorderCallbackPrefix + h.op
		if h.get(name) != nil {
			continue
		}
		if err := h.add(name, recordResource); err != nil {
			return fmt.Errorf("register %s callback: %w", h.op, err)
		}
	}
	return nil
}

func recordResource(db *gorm.DB) {
	stmt := db.Statement
	if stmt == nil || stmt.Context == nil {
		return
	}
	table := stmt.Table
	if table == "" && stmt.Schema != nil {
		table = stmt.Schema.Table
	}
	if table == "" {
		return
	}
	record(stmt.Context, table)
}
