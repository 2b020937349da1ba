// Package cli is the terminal client: one process-wide session restored at
// startup and a command per operation.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/erazemk/materiais/internal/guard"
	"github.com/erazemk/materiais/internal/session"
	"github.com/erazemk/materiais/internal/store"
	"github.com/erazemk/materiais/internal/viewmodel"
)

// currentSessionSetting names the settings row holding the logged-in session id.
const currentSessionSetting = "cli_session"

// errNotAuthenticated is reported by protected commands without a session.
var errNotAuthenticated = errors.New("não autenticado: execute 'materiaisctl login'")

// errSessionExpired is reported when the backend rejects the session token.
var errSessionExpired = errors.New("sessão expirada: execute 'materiaisctl login'")

// App runs commands against the backend on behalf of the current session.
type App struct {
	db       *sql.DB
	sessions *session.Manager
	pending  *viewmodel.Pending

	reader       *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)

	current *session.Session
}

// New creates an App reading input from in and writing to out. Passwords are
// read without echo when in is a terminal.
func New(db *sql.DB, sessions *session.Manager, in io.Reader, out io.Writer) *App {
	a := &App{
		db:       db,
		sessions: sessions,
		pending:  &viewmodel.Pending{},
		reader:   bufio.NewReader(in),
		out:      out,
	}
	a.readPassword = a.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.readPassword = func() (string, error) {
			pw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(a.out)
			return string(pw), err
		}
	}
	return a
}

// Restore loads the session saved by the last login, if it is still valid.
func (a *App) Restore(ctx context.Context) error {
	sid, err := store.GetSetting(ctx, a.db, currentSessionSetting)
	if err != nil {
		return err
	}
	s, err := a.sessions.Restore(ctx, sid)
	if err != nil {
		return err
	}
	if s == nil && sid != "" {
		// Expired or unreadable; forget it.
		if err := store.DeleteSetting(ctx, a.db, currentSessionSetting); err != nil {
			return err
		}
	}
	a.current = s
	return nil
}

// Session returns the current session, or nil when logged out.
func (a *App) Session() *session.Session {
	return a.current
}

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return 1
	}

	if args[0] == "help" {
		a.usage()
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "comando desconhecido: %s\n", args[0])
		a.usage()
		return 1
	}

	if cmd.protected && !guard.IsAuthenticated(a.current) {
		fmt.Fprintln(a.out, errNotAuthenticated)
		return 1
	}

	if err := cmd.run(a, ctx, args[1:]); err != nil {
		if a.sessions.Check(ctx, a.current, err) {
			a.forget(ctx)
			err = errSessionExpired
		}
		fmt.Fprintf(a.out, "erro: %s\n", describe(err))
		return 1
	}
	return 0
}

// forget drops the current session locally.
func (a *App) forget(ctx context.Context) {
	a.current = nil
	if err := store.DeleteSetting(ctx, a.db, currentSessionSetting); err != nil {
		slog.Error("failed to forget session", "error", err)
	}
}

func (a *App) usage() {
	fmt.Fprint(a.out, `Uso: materiaisctl [flags] <comando> [argumentos]

Comandos:
  login                  entrar
  logout                 sair
  register               criar conta
  whoami                 mostrar o usuário atual
  list                   listar itens
  show <id>              mostrar um item
  add                    cadastrar item
  edit <id>              editar item
  delete <id> [-y]       excluir item
  activities             listar atividades
  forgot-password        solicitar redefinição de senha
  reset-password         redefinir senha com o token recebido
  help                   mostrar esta ajuda
`)
}
