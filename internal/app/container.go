package app

import (
	"context"
	"os"

	"github.com/scribeapp/scribe/internal/application/chat"
	"github.com/scribeapp/scribe/internal/application/dispatch"
	"github.com/scribeapp/scribe/internal/application/doctor"
	"github.com/scribeapp/scribe/internal/application/route"
	"github.com/scribeapp/scribe/internal/application/runner"
	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/infrastructure/ai"
	"github.com/scribeapp/scribe/internal/infrastructure/capture"
	"github.com/scribeapp/scribe/internal/infrastructure/clipboard"
	"github.com/scribeapp/scribe/internal/infrastructure/config"
	"github.com/scribeapp/scribe/internal/infrastructure/hotkey"
	"github.com/scribeapp/scribe/internal/infrastructure/notify"
	"github.com/scribeapp/scribe/internal/infrastructure/sessionstore"
	"github.com/scribeapp/scribe/internal/infrastructure/surface"
	"github.com/scribeapp/scribe/internal/pkg/logger"
	"github.com/scribeapp/scribe/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigLoader   *config.FileLoader
	ConfigProvider ports.ConfigProvider

	Dispatcher    *dispatch.Dispatcher
	Router        *route.Router
	Core          *runner.Core
	Chats         *chat.Manager
	Sessions      *sessionstore.Store
	Listener      *hotkey.Listener
	Input         *surface.Feed
	Surface       ports.Surface
	DoctorService *doctor.Service
	Logger        ports.Logger

	closeLog func()
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	var log ports.Logger
	closeLog := func() {}
	if zapLog, err := logger.NewZap(verbose); err == nil {
		log = zapLog
		closeLog = zapLog.Sync
	} else {
		log = logger.NewStd(verbose)
	}

	bridge, err := clipboard.NewBridge()
	if err != nil {
		closeLog()
		return nil, err
	}

	sessions, err := sessionstore.Open(sessionstore.DefaultPath())
	if err != nil {
		closeLog()
		return nil, err
	}

	state, err := domain.NewProviderState(cfg)
	if err != nil {
		sessions.Close()
		closeLog()
		return nil, err
	}

	chats := chat.NewManager(sessions, cfg.Chat, log)
	core := runner.NewCore(ai.NewFactory(), cfg.Workers.PoolSize, log)
	capturer := capture.NewService(bridge, cfg.Capture, log)
	console := surface.NewConsole(os.Stdout)
	input := surface.NewFeed(os.Stdin)
	picker := surface.NewConsolePicker(input, os.Stdout)
	notifier := notify.NewDesktopNotifier(log)
	listener := hotkey.NewListener(log)

	dispatcher := dispatch.NewDispatcher(capturer, picker, core, chats, console, notifier, cfg, state, log)
	router := route.NewRouter(core, bridge, chats, console, notifier, log)

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		ValidateBinding: func(binding string) error {
			_, _, err := hotkey.ParseBinding(binding)
			return err
		},
		ClipboardProbe: func() error {
			snapshot, err := bridge.ReadAll()
			if err != nil {
				return err
			}
			return bridge.WriteAll(snapshot)
		},
		SessionProbe: func() error {
			_, err := sessions.List()
			return err
		},
	}

	return &Container{
		Config:         cfg,
		ConfigLoader:   cfgLoader,
		ConfigProvider: cfgLoader,
		Dispatcher:     dispatcher,
		Router:         router,
		Core:           core,
		Chats:          chats,
		Sessions:       sessions,
		Listener:       listener,
		Input:          input,
		Surface:        console,
		DoctorService:  doctorService,
		Logger:         log,
		closeLog:       closeLog,
	}, nil
}

// Close releases the container's long-lived resources in reverse order of
// their construction.
func (c *Container) Close() {
	if c.Listener != nil {
		c.Listener.Close()
	}
	if c.Core != nil {
		c.Core.Close()
	}
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	if c.closeLog != nil {
		c.closeLog()
	}
}
