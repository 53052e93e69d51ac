package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		view       string
		propertyID string
	)

	cmd := &cobra.Command{
		Use:   "resolve <frase>",
		Short: "Interpreta una frase y muestra la intención resuelta en JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			ws, err := a.service.Workspace(cmd.Context())
			if err != nil {
				return fmt.Errorf("load workspace: %w", err)
			}
			ws.View = domain.View(strings.ToUpper(view))
			if propertyID != "" {
				p, ok := ws.PropertyByID(propertyID)
				if !ok {
					return fmt.Errorf("property %q not in workspace", propertyID)
				}
				ws.SelectedProperty = p
			}

			intent := a.resolver.Resolve(cmd.Context(), strings.Join(args, " "), ws, nil)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(intent)
		},
	}

	cmd.Flags().StringVar(&view, "view", string(domain.ViewMap), "vista activa del panel")
	cmd.Flags().StringVar(&propertyID, "property", "", "id de la propiedad seleccionada")
	return cmd
}
