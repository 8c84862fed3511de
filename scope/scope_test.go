package scope

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newRenderDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func TestPrincipalValid(t *testing.T) {
	if (Principal{}).Valid() {
		t.Error("zero principal must be invalid")
	}
	if !(Principal{ID: "p1"}).Valid() {
		t.Error("principal with ID must be valid")
	}
}

func TestContextBinding(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no principal on a fresh context")
	}

	ctx = WithPrincipal(ctx, Principal{ID: "p1"})
	p, ok := FromContext(ctx)
	if !ok || p.ID != "p1" {
		t.Errorf("FromContext = %+v, %v; want p1, true", p, ok)
	}

	// Binding an invalid principal must not authenticate the context.
	if _, ok := FromContext(WithPrincipal(context.Background(), Principal{})); ok {
		t.Error("unbound principal must not be returned as valid")
	}
}

func TestOwnershipOwnerColumn(t *testing.T) {
	if got := (Ownership{}).OwnerColumn(); got != DefaultOwnerColumn {
		t.Errorf("default owner column = %q, want %q", got, DefaultOwnerColumn)
	}
	if got := (Ownership{Column: "account_id"}).OwnerColumn(); got != "account_id" {
		t.Errorf("override owner column = %q, want account_id", got)
	}
}

func TestSelectCriteriaRequiresPrincipal(t *testing.T) {
	_, err := Ownership{}.SelectCriteria(Principal{})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSelectCriteriaConstrainsQueryToOwner(t *testing.T) {
	db := newRenderDB(t)

	crit, err := Ownership{}.SelectCriteria(Principal{ID: "p1"})
	if err != nil {
		t.Fatalf("SelectCriteria: %v", err)
	}

	q := crit(db.NewSelect().Table("tasks"))
	rendered := q.String()

	if !strings.Contains(rendered, `"user_id" = 'p1'`) {
		t.Errorf("rendered query misses owner constraint: %s", rendered)
	}
}

func TestSelectCriteriaHonorsColumnOverride(t *testing.T) {
	db := newRenderDB(t)

	crit, err := Ownership{Column: "account_id"}.SelectCriteria(Principal{ID: "p2"})
	if err != nil {
		t.Fatalf("SelectCriteria: %v", err)
	}

	rendered := crit(db.NewSelect().Table("tasks")).String()
	if !strings.Contains(rendered, `"account_id" = 'p2'`) {
		t.Errorf("rendered query misses overridden owner column: %s", rendered)
	}
}

func TestOwns(t *testing.T) {
	o := Ownership{}
	if !o.Owns(Principal{ID: "p1"}, "p1") {
		t.Error("principal must own its own rows")
	}
	if o.Owns(Principal{ID: "p1"}, "p2") {
		t.Error("principal must not own another tenant's rows")
	}
	if o.Owns(Principal{}, "") {
		t.Error("unbound principal owns nothing, even rows with an empty owner")
	}
}
