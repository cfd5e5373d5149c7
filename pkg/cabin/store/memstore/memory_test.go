package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cognicore/cabin/pkg/cabin/catalog"
	"github.com/cognicore/cabin/pkg/cabin/internalerr"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/setting"
	"github.com/cognicore/cabin/pkg/cabin/store"
)

var _ store.Store = (*Store)(nil)

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	st := New()

	if _, err := st.LoadCatalog(ctx); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("LoadCatalog on empty store = %v, want ErrNotFound", err)
	}
	if err := st.SaveCatalog(ctx, nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("SaveCatalog(nil) = %v, want ErrInvalidInput", err)
	}

	c, err := catalog.New([]catalog.Setting{{CanonicalName: "DEFOG"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveCatalog(ctx, c); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	got, err := st.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1", got.Len())
	}
}

func TestTablesAreCopied(t *testing.T) {
	ctx := context.Background()
	st := New()

	entries := []normalize.Entry{{Canonical: "LAST", Aliases: []string{"last"}}}
	if err := st.SaveTable(ctx, store.TableIndex, entries); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	entries[0].Aliases[0] = "changed"

	got, err := st.LoadTable(ctx, store.TableIndex)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if got[0].Aliases[0] != "last" {
		t.Errorf("stored table was modified through the caller's slice: %+v", got)
	}

	if _, err := st.LoadTable(ctx, store.TableAmountUnit); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("LoadTable(missing) = %v, want ErrNotFound", err)
	}
}

func TestRecentRecords(t *testing.T) {
	ctx := context.Background()
	st := New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := store.Record{
			ID:      fmt.Sprintf("r%d", i),
			Time:    base.Add(time.Duration(i) * time.Second),
			Changes: []setting.Change{{SettingName: "DEFOG", Value: "ON"}},
		}
		if err := st.AppendRecord(ctx, r); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}

	if err := st.AppendRecord(ctx, store.Record{ID: "r0"}); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("duplicate id = %v, want ErrDuplicate", err)
	}

	got, err := st.RecentRecords(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRecords: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r4" || got[1].ID != "r3" {
		t.Errorf("RecentRecords(2) = %+v", got)
	}

	got[0].Changes[0].Value = "OFF"
	again, _ := st.RecentRecords(ctx, 1)
	if again[0].Changes[0].Value != "ON" {
		t.Error("returned records should not alias stored ones")
	}

	all, _ := st.RecentRecords(ctx, 0)
	if len(all) != 5 {
		t.Errorf("RecentRecords(0) returned %d records, want 5", len(all))
	}
}
