package main

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seu-repo/rentmap-voice/internal/adapter/cache"
	"github.com/seu-repo/rentmap-voice/internal/service/voice"
)

const chatSessionID = "console"

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Conversación por consola: cada línea es una frase dicha al asistente",
		Long:  "chat abre una sesión completa del asistente. Escribí frases como si las dijeras; respondé si/no a las confirmaciones, /cancelar corta la conversación y /salir termina.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			return runChat(cmd, a)
		},
	}
}

func runChat(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	term := newConsole(cmd.OutOrStdout(), a.service)

	assistant := voice.NewAssistant(
		a.resolver,
		a.service,
		a.service,
		cache.NewHistoryStore(a.cache, a.cfg.Redis.HistoryTTL),
		voice.AssistantConfig{
			Locale:       a.cfg.Voice.Locale,
			HistoryLimit: a.cfg.Voice.HistoryLimit,
			ExecuteDelay: a.cfg.Voice.ExecuteDelay,
		},
		a.log,
	)

	settled := make(chan voice.State, 1)
	ctrl := assistant.NewSession(ctx, chatSessionID, term, voice.SessionHooks{
		OnStateChange: func(_, to voice.State) {
			switch to {
			case voice.StateIdle, voice.StateListening, voice.StateAwaitingConfirmation:
				select {
				case settled <- to:
				default:
				}
			}
		},
	})
	defer ctrl.Close()

	wait := a.cfg.LLM.Timeout + a.cfg.Voice.ExecuteDelay + 5*time.Second

	scanner := bufio.NewScanner(cmd.InOrStdin())
	term.printf("Escribí lo que le dirías al asistente (/salir para terminar).")
	for {
		term.printf("vos>")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/salir":
			return nil
		case line == "/cancelar":
			ctrl.Cancel()
			continue
		case ctrl.Gate().HasPending():
			if handled := answerConfirmation(ctx, term, ctrl, line); handled {
				continue
			}
		}

		drain(settled)
		if ctrl.State() != voice.StateListening {
			if err := ctrl.Toggle(); err != nil {
				if errors.Is(err, voice.ErrCaptureUnsupported) {
					return err
				}
				term.printf("error: %v", err)
				continue
			}
			drain(settled)
		}
		ctrl.Capture().Deliver(line)

		select {
		case <-settled:
		case <-time.After(wait):
			term.printf("(sin respuesta a tiempo)")
		}
	}
	return scanner.Err()
}

// answerConfirmation reports whether line was a yes/no reply.
func answerConfirmation(ctx context.Context, term *console, ctrl *voice.Controller, line string) bool {
	var yes bool
	switch strings.ToLower(line) {
	case "si", "sí", "s", "y", "yes":
		yes = true
	case "no", "n":
	default:
		return false
	}

	_, hasUpdate := ctrl.Gate().PendingUpdate()
	switch {
	case yes && hasUpdate:
		p, err := ctrl.ConfirmUpdate(ctx)
		if err != nil {
			term.printf("error: %v", err)
		} else if p != nil {
			term.printf("guardado: %s", p.Address)
		}
	case yes:
		e, err := ctrl.ConfirmExpense(ctx)
		if err != nil {
			term.printf("error: %v", err)
		} else if e != nil {
			term.printf("gasto registrado: $%.2f %s", e.Amount, e.Description)
		}
	case hasUpdate:
		ctrl.DeclineUpdate(ctx)
	default:
		ctrl.DeclineExpense(ctx)
	}
	return true
}

func drain(ch chan voice.State) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
