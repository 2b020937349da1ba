package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/erazemk/materiais/internal/apiclient"
	"github.com/erazemk/materiais/internal/model"
	"github.com/erazemk/materiais/internal/store"
	"github.com/erazemk/materiais/internal/viewmodel"
)

type command struct {
	protected bool
	run       func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":           {run: (*App).login},
	"logout":          {run: (*App).logout},
	"register":        {run: (*App).register},
	"forgot-password": {run: (*App).forgotPassword},
	"reset-password":  {run: (*App).resetPassword},
	"whoami":          {protected: true, run: (*App).whoami},
	"list":            {protected: true, run: (*App).list},
	"show":            {protected: true, run: (*App).show},
	"add":             {protected: true, run: (*App).add},
	"edit":            {protected: true, run: (*App).edit},
	"delete":          {protected: true, run: (*App).delete},
	"activities":      {protected: true, run: (*App).activities},
}

// describe renders an error for the terminal, preferring the backend message.
func describe(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return apiclient.Message(err, err.Error())
}

func (a *App) items() *viewmodel.Items {
	return viewmodel.NewItems(a.sessions.Client(a.current), a.pending, a.current.ID)
}

func (a *App) login(ctx context.Context, _ []string) error {
	email, err := a.prompt("Email", "")
	if err != nil {
		return err
	}
	password, err := a.password("Senha")
	if err != nil {
		return err
	}

	s, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}

	// Replace any previous session.
	if a.current != nil {
		if err := a.sessions.Logout(ctx, a.current.ID); err != nil {
			slog.Error("failed to end previous session", "session", a.current.ID, "error", err)
		}
	}
	if err := store.SetSetting(ctx, a.db, currentSessionSetting, s.ID); err != nil {
		return err
	}
	a.current = s
	fmt.Fprintf(a.out, "Bem-vindo, %s.\n", s.User.Name)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if a.current != nil {
		if err := a.sessions.Logout(ctx, a.current.ID); err != nil {
			return err
		}
	}
	a.forget(ctx)
	fmt.Fprintln(a.out, "Sessão encerrada.")
	return nil
}

func (a *App) register(ctx context.Context, _ []string) error {
	name, err := a.prompt("Nome", "")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email", "")
	if err != nil {
		return err
	}
	password, err := a.password("Senha")
	if err != nil {
		return err
	}

	if _, err := a.sessions.Register(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Cadastro realizado. Faça login.")
	return nil
}

func (a *App) forgotPassword(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = a.prompt("Email", ""); err != nil {
			return err
		}
	}
	if err := a.sessions.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Se o email estiver cadastrado, você receberá um link para redefinir a senha.")
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = a.prompt("Token", ""); err != nil {
			return err
		}
	}
	password, err := a.password("Nova senha")
	if err != nil {
		return err
	}
	if err := a.sessions.ConfirmPasswordReset(ctx, token, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Senha redefinida. Faça login.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	u := a.current.User
	fmt.Fprintf(a.out, "%s <%s> (ID: %s)\n", u.Name, u.Email, u.ID)
	fmt.Fprintf(a.out, "Sessão válida até %s\n", a.current.ExpiresAt.Local().Format("02/01/2006 15:04"))
	return nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	items, err := a.items().List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nenhum item cadastrado.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tDATA\tORIGEM\tDESTINO\tSERVIDOR\tPATRIMÔNIO")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Item, it.DisplayDate(), it.Origem, it.Destino, it.Servidor, it.DisplayPatrimonio())
	}
	return tw.Flush()
}

func oneID(args []string) (model.ID, error) {
	if len(args) != 1 || args[0] == "" {
		return "", &model.ValidationError{Fields: []string{"id"}, Reason: "informe o id do item"}
	}
	return model.ID(args[0]), nil
}

func (a *App) show(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	it, err := a.items().Get(ctx, id)
	if err != nil {
		return err
	}
	printItem(a.out, it)
	return nil
}

func printItem(w io.Writer, it *model.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	fmt.Fprintf(tw, "Item:\t%s\n", it.Item)
	fmt.Fprintf(tw, "Data:\t%s\n", it.DisplayDate())
	fmt.Fprintf(tw, "Origem:\t%s\n", it.Origem)
	fmt.Fprintf(tw, "Destino:\t%s\n", it.Destino)
	fmt.Fprintf(tw, "Servidor:\t%s\n", it.Servidor)
	fmt.Fprintf(tw, "Patrimônio:\t%s\n", it.DisplayPatrimonio())
	tw.Flush()
}

// promptFields asks for every item field, offering defaults as the current
// values.
func (a *App) promptFields(defaults model.ItemFields) (model.ItemFields, error) {
	f := defaults
	for _, p := range []struct {
		label string
		dst   *string
	}{
		{"Item", &f.Item},
		{"Data (AAAA-MM-DD)", &f.Data},
		{"Origem", &f.Origem},
		{"Destino", &f.Destino},
		{"Servidor", &f.Servidor},
		{"Patrimônio (opcional)", &f.Patrimonio},
	} {
		v, err := a.prompt(p.label, *p.dst)
		if err != nil {
			return f, err
		}
		*p.dst = v
	}
	return f, nil
}

func (a *App) add(ctx context.Context, _ []string) error {
	fields, err := a.promptFields(model.NewItemFields(time.Now()))
	if err != nil {
		return err
	}
	it, err := a.items().Create(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Item cadastrado (ID: %s).\n", it.ID)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	vm := a.items()
	current, err := vm.Get(ctx, id)
	if err != nil {
		return err
	}

	defaults := current.ItemFields
	defaults.Data = model.DateOnly(defaults.Data)
	fields, err := a.promptFields(defaults)
	if err != nil {
		return err
	}
	if _, err := vm.Update(ctx, id, fields); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Item atualizado.")
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var yes bool
	fs.BoolVar(&yes, "yes", false, "")
	fs.BoolVar(&yes, "y", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := oneID(fs.Args())
	if err != nil {
		return err
	}

	if !yes {
		if yes, err = a.confirm(fmt.Sprintf("Excluir o item %s?", id)); err != nil {
			return err
		}
	}
	if err := a.items().Delete(ctx, id, yes); err != nil {
		if errors.Is(err, viewmodel.ErrNotConfirmed) {
			fmt.Fprintln(a.out, "Exclusão cancelada.")
			return nil
		}
		return err
	}
	fmt.Fprintln(a.out, "Item excluído.")
	return nil
}

func (a *App) activities(ctx context.Context, _ []string) error {
	rows, err := a.items().Activities(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "Nenhuma atividade registrada.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUANDO\tAÇÃO\tITEM\tUSUÁRIO")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.When, row.Action, row.Label, row.User)
	}
	return tw.Flush()
}
