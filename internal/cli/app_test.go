package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/db"
	"github.com/erazemk/materiais/internal/fakeapi"
	"github.com/erazemk/materiais/internal/session"
)

type testEnv struct {
	backend *fakeapi.Backend
	db      *sql.DB
	manager *session.Manager
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	backend, server := fakeapi.NewServer(t)
	backend.AddUser("Maria", "maria@example.com", "password")

	database := db.NewTestDB(t)
	manager, err := session.NewManager(database, apiclient.New(server.URL, 5*time.Second),
		bytes.Repeat([]byte{9}, session.KeySize), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{backend: backend, db: database, manager: manager}
}

// run starts a fresh process-like App, restores the saved session and runs
// one command with the given input.
func (e *testEnv) run(t *testing.T, input string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	app := New(e.db, e.manager, strings.NewReader(input), &out)
	if err := app.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	code := app.Run(context.Background(), args)
	return code, out.String()
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	if code, out := e.run(t, "maria@example.com\npassword\n", "login"); code != 0 {
		t.Fatalf("login failed: %s", out)
	}
}

func expectOutput(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("expected output to contain %q, got:\n%s", w, out)
		}
	}
}

func TestProtectedCommandsNeedLogin(t *testing.T) {
	env := setup(t)
	for _, cmd := range []string{"whoami", "list", "show", "add", "edit", "delete", "activities"} {
		code, out := env.run(t, "", cmd)
		if code != 1 {
			t.Errorf("%s: expected exit 1, got %d", cmd, code)
		}
		expectOutput(t, out, "não autenticado: execute 'materiaisctl login'")
	}
	if n := env.backend.TotalRequests(); n != 0 {
		t.Errorf("expected no backend requests, got %d", n)
	}
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	env := setup(t)
	env.login(t)

	code, out := env.run(t, "", "whoami")
	if code != 0 {
		t.Fatalf("whoami failed: %s", out)
	}
	expectOutput(t, out, "Maria <maria@example.com>")
}

func TestLoginWrongPassword(t *testing.T) {
	env := setup(t)

	code, out := env.run(t, "maria@example.com\nwrong\n", "login")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	expectOutput(t, out, "Credenciais inválidas")

	code, _ = env.run(t, "", "list")
	if code != 1 {
		t.Error("expected list to stay protected after failed login")
	}
}

func TestAddListAndActivities(t *testing.T) {
	env := setup(t)
	env.login(t)

	input := "Notebook Dell\n2024-01-10\nTI\nRH\nMaria\n\n"
	code, out := env.run(t, input, "add")
	if code != 0 {
		t.Fatalf("add failed: %s", out)
	}
	expectOutput(t, out, "Item cadastrado")

	_, out = env.run(t, "", "list")
	expectOutput(t, out, "Notebook Dell", "10/01/2024", "TI", "RH")

	_, out = env.run(t, "", "activities")
	expectOutput(t, out, "Cadastro", "Notebook Dell (ID: ")
}

func TestAddMissingFieldMakesNoRequest(t *testing.T) {
	env := setup(t)
	env.login(t)
	before := env.backend.TotalRequests()

	code, out := env.run(t, "Notebook Dell\n\n\nRH\nMaria\n\n", "add")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	expectOutput(t, out, "origem")
	if env.backend.TotalRequests() != before {
		t.Error("expected no backend request for invalid item")
	}
}

func TestEditKeepsUnchangedFields(t *testing.T) {
	env := setup(t)
	env.login(t)
	env.run(t, "Notebook Dell\n2024-01-10\nTI\nRH\nMaria\nPAT-1\n", "add")
	id := env.backend.Items()[0].ID.String()

	// Change only the destination.
	code, out := env.run(t, "\n\n\nAlmoxarifado\n\n\n", "edit", id)
	if code != 0 {
		t.Fatalf("edit failed: %s", out)
	}

	got := env.backend.Items()[0]
	if got.Destino != "Almoxarifado" || got.Item != "Notebook Dell" || got.Patrimonio != "PAT-1" {
		t.Errorf("unexpected item after edit: %+v", got)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	env := setup(t)
	env.login(t)
	env.run(t, "Notebook Dell\n2024-01-10\nTI\nRH\nMaria\n\n", "add")
	id := env.backend.Items()[0].ID.String()

	_, out := env.run(t, "n\n", "delete", id)
	expectOutput(t, out, "Exclusão cancelada.")
	if len(env.backend.Items()) != 1 {
		t.Fatal("expected item kept when not confirmed")
	}

	code, out := env.run(t, "", "delete", "-y", id)
	if code != 0 {
		t.Fatalf("delete failed: %s", out)
	}
	if len(env.backend.Items()) != 0 {
		t.Error("expected item deleted")
	}

	_, out = env.run(t, "", "activities")
	expectOutput(t, out, "Exclusão")
}

func TestShowMissingItem(t *testing.T) {
	env := setup(t)
	env.login(t)

	code, _ := env.run(t, "", "show", "999")
	if code != 1 {
		t.Errorf("expected exit 1 for missing item, got %d", code)
	}
}

func TestRevokedTokenClearsSession(t *testing.T) {
	env := setup(t)
	env.login(t)
	env.backend.RevokeAll()

	code, out := env.run(t, "", "list")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	expectOutput(t, out, "sessão expirada")

	_, out = env.run(t, "", "list")
	expectOutput(t, out, "não autenticado")
}

func TestLogout(t *testing.T) {
	env := setup(t)
	env.login(t)

	if code, out := env.run(t, "", "logout"); code != 0 {
		t.Fatalf("logout failed: %s", out)
	}
	_, out := env.run(t, "", "whoami")
	expectOutput(t, out, "não autenticado")

	// Logging out twice is fine.
	if code, _ := env.run(t, "", "logout"); code != 0 {
		t.Error("expected second logout to succeed")
	}
}

func TestRegisterAndResetPassword(t *testing.T) {
	env := setup(t)

	code, out := env.run(t, "Ana\nana@example.com\nsegredo\n", "register")
	if code != 0 {
		t.Fatalf("register failed: %s", out)
	}
	expectOutput(t, out, "Cadastro realizado. Faça login.")

	if code, out := env.run(t, "", "forgot-password", "ana@example.com"); code != 0 {
		t.Fatalf("forgot-password failed: %s", out)
	}
	token := env.backend.ResetToken("ana@example.com")
	if code, out := env.run(t, "nova\n", "reset-password", token); code != 0 {
		t.Fatalf("reset-password failed: %s", out)
	}

	if code, out := env.run(t, "ana@example.com\nnova\n", "login"); code != 0 {
		t.Errorf("expected login with new password, got %s", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	env := setup(t)
	code, out := env.run(t, "", "frobnicate")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	expectOutput(t, out, "comando desconhecido", "Uso: materiaisctl")
}

func TestHelpNeedsNoSession(t *testing.T) {
	env := setup(t)
	code, out := env.run(t, "", "help")
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	expectOutput(t, out, "Uso: materiaisctl", "delete <id> [-y]")
	if env.backend.TotalRequests() != 0 {
		t.Errorf("expected no backend requests, got %d", env.backend.TotalRequests())
	}
}

func TestForgetLogsStoreFailure(t *testing.T) {
	env := setup(t)
	app := New(env.db, env.manager, strings.NewReader(""), io.Discard)
	env.db.Close()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	app.forget(context.Background())
	if app.Session() != nil {
		t.Error("expected session cleared")
	}
	if !strings.Contains(logs.String(), "failed to forget session") {
		t.Errorf("expected store failure logged, got %q", logs.String())
	}
}
