// Package student reads the learner's profile record.
package student

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/abhisek/coursekit/internal/store"
)

// Key is the KV key holding the profile.
const Key = "ea_student"

// Defaults used when the profile omits a field.
const (
	DefaultName   = "Student"
	DefaultCourse = "International Freight Dispatcher"
)

// Profile is the stored student record.
type Profile struct {
	Name   string `json:"name,omitempty"`
	Course string `json:"course,omitempty"`
}

// DisplayName returns the name or DefaultName.
func (p Profile) DisplayName() string {
	if p.Name == "" {
		return DefaultName
	}
	return p.Name
}

// DisplayCourse returns the course or DefaultCourse.
func (p Profile) DisplayCourse() string {
	if p.Course == "" {
		return DefaultCourse
	}
	return p.Course
}

// Records reads and writes the profile.
type Records struct {
	kv     store.KV
	logger *log.Logger
}

// New returns Records over kv. logger may be nil.
func New(kv store.KV, logger *log.Logger) *Records {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Records{kv: kv, logger: logger}
}

// Get returns the stored profile. Missing or corrupt data yields an empty
// profile.
func (r *Records) Get(ctx context.Context) Profile {
	raw, ok, err := r.kv.Get(ctx, Key)
	if err != nil {
		r.logger.Printf("student: read profile: %v", err)
		return Profile{}
	}
	if !ok || raw == "" {
		return Profile{}
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		r.logger.Printf("student: malformed profile ignored: %v", err)
		return Profile{}
	}
	return p
}

// Name returns the display name.
func (r *Records) Name(ctx context.Context) string {
	return r.Get(ctx).DisplayName()
}

// CourseName returns the display course name.
func (r *Records) CourseName(ctx context.Context) string {
	return r.Get(ctx).DisplayCourse()
}

// Save stores p.
func (r *Records) Save(ctx context.Context, p Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := r.kv.Set(ctx, Key, string(b)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
