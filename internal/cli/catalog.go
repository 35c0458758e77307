package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"infographic/internal/llm"
	llmclient "infographic/internal/llmClient"
	"infographic/internal/sectiontype"
)

func (e *env) factory() (*llm.Factory, error) {
	cfg, log, err := e.load()
	if err != nil {
		return nil, err
	}
	return llm.NewDefaultFactory(llm.FactoryConfig{
		Credentials:     cfg.Credentials,
		DefaultProvider: cfg.DefaultProvider,
		Logger:          log,
	})
}

func newProvidersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and whether a key is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := e.factory()
			if err != nil {
				return err
			}
			def := f.DefaultProvider()
			rows := make([][]string, 0, 4)
			for _, p := range f.ListProviders() {
				id := p.ID
				if id == def {
					id += styleDim.Render(" (default)")
				}
				rows = append(rows, []string{id, p.Name, p.DefaultModel, yesNo(p.SupportsSearch), yesNo(f.Configured(p.ID))})
			}
			_, err = fmt.Fprint(e.stdout, renderTable([]string{"ID", "NAME", "DEFAULT MODEL", "SEARCH", "KEY"}, rows))
			return err
		},
	}
}

func newModelsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a provider offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := e.factory()
			if err != nil {
				return err
			}
			models, err := f.ListModels(args[0])
			if err != nil {
				return err
			}
			info, _ := f.Provider(args[0])
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{modelID(m, info), m.Name, yesNo(m.Free)})
			}
			_, err = fmt.Fprint(e.stdout, renderTable([]string{"MODEL", "NAME", "FREE"}, rows))
			return err
		},
	}
}

func modelID(m llmclient.ModelInfo, info llm.ProviderInfo) string {
	if m.ID == info.DefaultModel {
		return m.ID + styleDim.Render(" (default)")
	}
	return m.ID
}

func newSectionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the registered section types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]string, 0, 16)
			for _, cat := range sectiontype.Categories() {
				for _, def := range sectiontype.Default().ByCategory(cat) {
					rows = append(rows, []string{def.Name, string(cat), strings.Join(def.RequiredFields, ", ")})
				}
			}
			_, err := fmt.Fprint(e.stdout, renderTable([]string{"TYPE", "CATEGORY", "REQUIRED"}, rows))
			return err
		},
	}
}
