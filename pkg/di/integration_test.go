package di

import (
	"context"
	"errors"
	"testing"

	"github.com/stackmill/tenantcache/pkg/testsupport"
	"github.com/stackmill/tenantcache/scope"
	"github.com/stackmill/tenantcache/scopedcache"
)

// TestTwoTenantLifecycle walks the full create / list / cross-tenant read /
// update flow through a container-wired service, checking that cached reads
// never go stale and never cross tenants.
func TestTwoTenantLifecycle(t *testing.T) {
	ctx := context.Background()

	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults: %v", err)
	}

	repo := testsupport.NewStubRepo[*testsupport.Task]()
	tasks := NewScopedRepository(container, repo, scopedcache.ResourceConfig{
		Filters: map[string]scopedcache.FilterFunc{
			"status": scopedcache.Equals("status"),
		},
	})

	principalA := scope.Principal{ID: "tenant-a"}
	principalB := scope.Principal{ID: "tenant-b"}

	// Principal A creates a task.
	created, err := tasks.Create(ctx, principalA, &testsupport.Task{ID: "task-1", Title: "draft report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OwnerID() != principalA.ID {
		t.Fatalf("owner = %q, want %q", created.OwnerID(), principalA.ID)
	}

	// A's list includes it.
	page, err := tasks.List(ctx, principalA, nil, scopedcache.Pagination{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "task-1" {
		t.Fatalf("unexpected page: %+v", page)
	}

	// A warms the item cache.
	got, err := tasks.GetByID(ctx, principalA, "task-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "" && got.Status != "open" {
		t.Fatalf("unexpected status %q", got.Status)
	}

	// B cannot see it, cached or not.
	if _, err := tasks.GetByID(ctx, principalB, "task-1"); !errors.Is(err, scopedcache.ErrNotFound) {
		t.Fatalf("cross-tenant GetByID: got %v, want ErrNotFound", err)
	}

	// A updates the task; the previously cached item entry must not be
	// served afterwards.
	done := *got
	done.Status = "done"
	if _, err := tasks.Update(ctx, principalA, &done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fresh, err := tasks.GetByID(ctx, principalA, "task-1")
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if fresh.Status != "done" {
		t.Fatalf("stale read after update: status = %q, want done", fresh.Status)
	}

	// Delete removes it for good.
	if err := tasks.Delete(ctx, principalA, fresh); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := tasks.GetByID(ctx, principalA, "task-1"); !errors.Is(err, scopedcache.ErrNotFound) {
		t.Fatalf("deleted task still readable: %v", err)
	}
}
