package scopedcache

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestIsNoRows(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bare sql.ErrNoRows", sql.ErrNoRows, true},
		{"wrapped sql.ErrNoRows", fmt.Errorf("fetch task: %w", sql.ErrNoRows), true},
		{"rewrapped without chain", errors.New("fetch task: sql: no rows in result set"), true},
		{"mentions rows but is not a miss", errors.New("scan failed, no rows decoded"), false},
		{"unrelated store error", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNoRows(tt.err); got != tt.want {
				t.Errorf("isNoRows(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
