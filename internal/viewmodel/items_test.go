package viewmodel

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/fakeapi"
	"github.com/erazemk/materiais/internal/model"
)

func setupItems(t *testing.T) (*fakeapi.Backend, *apiclient.Client) {
	t.Helper()
	backend, server := fakeapi.NewServer(t)
	u := backend.AddUser("Maria", "maria@example.com", "password")
	return backend, apiclient.New(server.URL, 5*time.Second).WithToken(backend.Token(u))
}

func notebook() model.ItemFields {
	return model.ItemFields{
		Item:       "Notebook Dell",
		Data:       "2024-01-10",
		Origem:     "TI",
		Destino:    "RH",
		Servidor:   "Maria",
		Patrimonio: "",
	}
}

func TestCreateNotebookProducesActivity(t *testing.T) {
	_, api := setupItems(t)
	vm := NewItems(api, nil, "s1")
	ctx := context.Background()

	created, err := vm.Create(ctx, notebook())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	snap, err := vm.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].ItemFields != notebook() {
		t.Errorf("expected the submitted fields back, got %+v", snap.Items)
	}
	if len(snap.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(snap.Activities))
	}

	row := snap.Activities[0]
	if row.Activity.Action != model.ActionCreate {
		t.Errorf("expected CREATE, got %q", row.Activity.Action)
	}
	details, err := model.ParseDetails(row.Activity.Details)
	if err != nil {
		t.Fatalf("ParseDetails: %v", err)
	}
	if details.ItemName != "Notebook Dell" || details.ItemID != created.ID {
		t.Errorf("unexpected details: %+v", details)
	}
	if row.User != "Maria" || row.Action != "Cadastro" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestCreateMissingFieldsMakesNoRequest(t *testing.T) {
	backend, api := setupItems(t)
	vm := NewItems(api, nil, "s1")

	fields := notebook()
	fields.Origem = "  "
	fields.Servidor = ""

	_, err := vm.Create(context.Background(), fields)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.Has("origem") || !verr.Has("servidor") {
		t.Errorf("expected origem and servidor reported, got %v", verr.Fields)
	}
	if n := backend.TotalRequests(); n != 0 {
		t.Errorf("expected no backend requests, got %d", n)
	}
}

func TestUpdateIsFullReplacement(t *testing.T) {
	_, api := setupItems(t)
	vm := NewItems(api, nil, "s1")
	ctx := context.Background()

	fields := notebook()
	fields.Patrimonio = "PAT-1"
	created, err := vm.Create(ctx, fields)
	if err != nil {
		t.Fatal(err)
	}

	replacement := model.ItemFields{
		Item:     "Monitor LG",
		Data:     "2024-02-01",
		Origem:   "RH",
		Destino:  "Almoxarifado",
		Servidor: "João",
	}
	if _, err := vm.Update(ctx, created.ID, replacement); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := vm.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ItemFields != replacement {
		t.Errorf("expected %+v, got %+v", replacement, got.ItemFields)
	}
}

func TestGetMissingItemIsNotFound(t *testing.T) {
	_, api := setupItems(t)
	vm := NewItems(api, nil, "s1")

	_, err := vm.Get(context.Background(), "999")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	backend, api := setupItems(t)
	vm := NewItems(api, nil, "s1")
	ctx := context.Background()

	created, _ := vm.Create(ctx, notebook())
	before := backend.TotalRequests()

	if err := vm.Delete(ctx, created.ID, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if backend.TotalRequests() != before {
		t.Error("unconfirmed delete must not reach the backend")
	}

	if err := vm.Delete(ctx, created.ID, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	snap, err := vm.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range snap.Items {
		if it.ID == created.ID {
			t.Error("deleted item still listed")
		}
	}
	latest := snap.Activities[0].Activity
	details, _ := model.ParseDetails(latest.Details)
	if latest.Action != model.ActionDelete || details.ItemID != created.ID {
		t.Errorf("expected DELETE activity for %s, got %s %+v", created.ID, latest.Action, details)
	}
}

func TestConcurrentDeletesIssueOneRequest(t *testing.T) {
	backend, api := setupItems(t)
	pending := &Pending{}
	ctx := context.Background()

	created, err := NewItems(api, pending, "s1").Create(ctx, notebook())
	if err != nil {
		t.Fatal(err)
	}
	route := "DELETE /items/" + created.ID.String()
	release := backend.Hold(route)
	defer release()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each click gets its own view, as with two form posts.
			errs[i] = NewItems(api, pending, "s1").Delete(ctx, created.ID, true)
		}(i)
		if i == 0 {
			waitFor(t, func() bool { return backend.Requests(route) == 1 })
		}
	}

	// Give the second click time to join the pending delete.
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("delete #%d: %v", i+1, err)
		}
	}
	if n := backend.Requests(route); n != 1 {
		t.Errorf("expected 1 DELETE request, got %d", n)
	}
}

func TestConcurrentDifferentUpdatesAreBothSent(t *testing.T) {
	backend, api := setupItems(t)
	pending := &Pending{}
	ctx := context.Background()

	created, err := NewItems(api, pending, "s1").Create(ctx, notebook())
	if err != nil {
		t.Fatal(err)
	}
	route := "PUT /items/" + created.ID.String()
	release := backend.Hold(route)
	defer release()

	destinos := []string{"Financeiro", "Juridico"}
	var wg sync.WaitGroup
	errs := make([]error, len(destinos))
	for i, destino := range destinos {
		fields := notebook()
		fields.Destino = destino
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = NewItems(api, pending, "s1").Update(ctx, created.ID, fields)
		}()
	}

	// Different values must not join each other's request.
	waitFor(t, func() bool { return backend.Requests(route) == 2 })
	release()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("update #%d: %v", i+1, err)
		}
	}
	got, err := api.GetItem(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Destino != "Financeiro" && got.Destino != "Juridico" {
		t.Errorf("expected one of the submitted destinos, got %q", got.Destino)
	}
}

func TestIdenticalConcurrentUpdatesShareOneRequest(t *testing.T) {
	backend, api := setupItems(t)
	pending := &Pending{}
	ctx := context.Background()

	created, err := NewItems(api, pending, "s1").Create(ctx, notebook())
	if err != nil {
		t.Fatal(err)
	}
	route := "PUT /items/" + created.ID.String()
	release := backend.Hold(route)
	defer release()

	fields := notebook()
	fields.Destino = "Financeiro"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = NewItems(api, pending, "s1").Update(ctx, created.ID, fields)
		}()
		if i == 0 {
			waitFor(t, func() bool { return backend.Requests(route) == 1 })
		}
	}

	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("update #%d: %v", i+1, err)
		}
	}
	if n := backend.Requests(route); n != 1 {
		t.Errorf("expected 1 PUT request, got %d", n)
	}
}

func TestCancelledClickDoesNotAbortSharedDelete(t *testing.T) {
	backend, api := setupItems(t)
	pending := &Pending{}

	created, err := NewItems(api, pending, "s1").Create(context.Background(), notebook())
	if err != nil {
		t.Fatal(err)
	}
	route := "DELETE /items/" + created.ID.String()
	release := backend.Hold(route)
	defer release()

	// The first click's request is aborted by the browser.
	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- NewItems(api, pending, "s1").Delete(firstCtx, created.ID, true)
	}()
	waitFor(t, func() bool { return backend.Requests(route) == 1 })

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- NewItems(api, pending, "s1").Delete(context.Background(), created.ID, true)
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Errorf("expected the cancelled click to stop waiting, got %v", err)
	}

	release()
	if err := <-secondDone; err != nil {
		t.Errorf("expected the remaining click to succeed, got %v", err)
	}
	if n := backend.Requests(route); n != 1 {
		t.Errorf("expected 1 DELETE request, got %d", n)
	}
	if items := backend.Items(); len(items) != 0 {
		t.Errorf("expected item deleted, got %+v", items)
	}
}

func TestDashboardFailsWhenEitherRequestFails(t *testing.T) {
	backend, api := setupItems(t)
	backend.FailWith("GET /items/activities/all", http.StatusInternalServerError)
	vm := NewItems(api, nil, "s1")

	snap, err := vm.Dashboard(context.Background())
	if !errors.Is(err, model.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if snap != nil {
		t.Error("expected no partial snapshot")
	}
}

func TestDashboardCachedUntilMutation(t *testing.T) {
	backend, api := setupItems(t)
	vm := NewItems(api, nil, "s1")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := vm.Dashboard(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if n := backend.Requests("GET /items"); n != 1 {
		t.Errorf("expected one items load while cached, got %d", n)
	}

	if _, err := vm.Create(ctx, notebook()); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Dashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if backend.Requests("GET /items") != 2 || backend.Requests("GET /items/activities/all") != 2 {
		t.Errorf("expected items and activities reloaded together, got %d and %d",
			backend.Requests("GET /items"), backend.Requests("GET /items/activities/all"))
	}
}

func TestEmptyListIsValid(t *testing.T) {
	_, api := setupItems(t)

	items, err := NewItems(api, nil, "s1").List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", items)
	}
}

func TestMalformedDetailsRenderFallback(t *testing.T) {
	backend, api := setupItems(t)
	backend.AddRawActivity(model.ActionUpdate, "{not json")

	rows, err := NewItems(api, nil, "s1").Activities(context.Background())
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(rows) != 1 || rows[0].Label != model.FallbackItemLabel {
		t.Errorf("expected fallback label, got %+v", rows)
	}
}

func TestRevokedTokenIsAuthError(t *testing.T) {
	backend, api := setupItems(t)
	backend.RevokeAll()

	_, err := NewItems(api, nil, "s1").Dashboard(context.Background())
	if !errors.Is(err, model.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
