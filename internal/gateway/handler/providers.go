package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"infographic/internal/llm"
	"infographic/internal/sectiontype"
)

type providerView struct {
	llm.ProviderInfo
	Configured bool `json:"configured"`
}

// ListProviders returns every registered provider. The default id is sent
// in the X-Default-Provider header and the "default" field.
func (h *Handler) ListProviders(w http.ResponseWriter, _ *http.Request) {
	infos := h.catalog.ListProviders()
	views := make([]providerView, 0, len(infos))
	for _, info := range infos {
		views = append(views, providerView{ProviderInfo: info, Configured: h.catalog.Configured(info.ID)})
	}
	def := h.catalog.DefaultProvider()
	w.Header().Set("X-Default-Provider", def)
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   def,
		"providers": views,
	})
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	models, err := h.catalog.ListModels(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": id,
		"models":   models,
	})
}

type sectionTypeView struct {
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Description    string         `json:"description,omitempty"`
	RequiredFields []string       `json:"requiredFields,omitempty"`
	OptionalFields []string       `json:"optionalFields,omitempty"`
	Example        map[string]any `json:"example,omitempty"`
}

// ListSectionTypes returns the process-wide section type registry.
func (h *Handler) ListSectionTypes(w http.ResponseWriter, _ *http.Request) {
	names := sectiontype.TypeNames()
	out := make([]sectionTypeView, 0, len(names))
	for _, name := range names {
		def, ok := sectiontype.Get(name)
		if !ok {
			continue
		}
		out = append(out, sectionTypeView{
			Name:           def.Name,
			Category:       string(def.Category),
			Description:    def.Description,
			RequiredFields: def.RequiredFields,
			OptionalFields: def.OptionalFields,
			Example:        def.Example,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sectionTypes": out})
}
