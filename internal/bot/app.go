// Package bot wires the registration/login flows, the notice scraper and
// the persistence layer into a runnable Telegram application.
package bot

import (
	"context"
	"fmt"
	"time"

	corebootstrap "github.com/danielambrosim/sistema-bot-leil-o/core/bootstrap"
	corecmd "github.com/danielambrosim/sistema-bot-leil-o/core/cmd"
	coretelegram "github.com/danielambrosim/sistema-bot-leil-o/core/telegram"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/router"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/cadastro"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/edital"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/login"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/mail"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/validate"

	tele "gopkg.in/telebot.v4"
)

// App holds the wired application.
type App struct {
	cfg *Config

	sessions *session.Store
	auth     *session.AuthRegistry

	usuarios  *storage.Usuarios
	sites     *storage.Sites
	mensagens *storage.Mensagens

	cadastro *cadastro.Machine
	login    *login.Machine
	buscador *edital.Buscador
	notifier *adminNotifier
}

// Bootstrap initializes infrastructure (logger, database, migrations) and
// wires the application. It matches the shape expected by the core runner.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	result, err := corebootstrap.Run(corebootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		sessions:  session.NewStore(),
		auth:      session.NewAuthRegistry(),
		usuarios:  storage.NewUsuarios(result.DB),
		sites:     storage.NewSites(result.DB),
		mensagens: storage.NewMensagens(result.DB),
		notifier:  &adminNotifier{adminID: cfg.Core.Telegram.AdminID},
	}

	modo := validate.ParseMode(cfg.Validacao.Modo)
	app.cadastro = cadastro.New(app.sessions, app.usuarios, mailer, app.notifier, modo)
	app.login = login.New(app.sessions, app.usuarios, app.auth)

	var buscadorOpts []edital.Option
	if cfg.Editais.Max > 0 {
		buscadorOpts = append(buscadorOpts, edital.WithMax(cfg.Editais.Max))
	}
	if cfg.Editais.TimeoutSeconds > 0 {
		buscadorOpts = append(buscadorOpts, edital.WithTimeout(time.Duration(cfg.Editais.TimeoutSeconds)*time.Second))
	}
	app.buscador = edital.NewBuscador(buscadorOpts...)

	return app, nil
}

// TelegramRunOptions assembles the routes, middlewares and lifecycle hooks
// for the core Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	fsm := &flowManager{
		sessions:  a.sessions,
		cadastro:  a.cadastro,
		login:     a.login,
		mensagens: a.mensagens,
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return c.Send("Comando restrito ao administrador.")
		},
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(fsm, reg, router.TextOptions{
		UnknownText: func(c tele.Context) error {
			return c.Send("Não entendi. Use /ajuda para ver os comandos disponíveis.")
		},
		UnknownPhoto: func(c tele.Context) error {
			return c.Send("Recebi a foto, mas nenhum cadastro está em andamento. Use /cadastro para começar.")
		},
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.notifier.setBot(rt.Bot)

	if err := a.seedSites(ctx); err != nil {
		return err
	}

	go a.sessions.RunSweeper(ctx, a.sweepInterval(), a.idleThreshold())
	return nil
}

func (a *App) sweepInterval() time.Duration {
	if m := a.cfg.Sessions.SweepMinutes; m > 0 {
		return time.Duration(m) * time.Minute
	}
	return session.DefaultSweepInterval
}

func (a *App) idleThreshold() time.Duration {
	if m := a.cfg.Sessions.IdleMinutes; m > 0 {
		return time.Duration(m) * time.Minute
	}
	return session.DefaultIdle
}
