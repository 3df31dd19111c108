package llm

import "github.com/alexgladd/llmsvc/pkg/models"

// ModelAlias maps a public model ID to the provider-native model ID behind
// it, with the catalog metadata the listing endpoint serves.
type ModelAlias struct {
	ID              string
	Name            string
	Provider        string
	ProviderModelID string
}

// aliases is the catalog of models the service exposes. Order is the order
// the listing endpoint reports.
var aliases = []ModelAlias{
	{
		ID:              "meta-llama3.3-70b",
		Name:            "Llama 3.3 70B Instruct",
		Provider:        "Meta",
		ProviderModelID: "meta.llama3-3-70b-instruct-v1:0",
	},
	{
		ID:              "meta-llama3.2-3b",
		Name:            "Llama 3.2 3B Instruct",
		Provider:        "Meta",
		ProviderModelID: "meta.llama3-2-3b-instruct-v1:0",
	},
	{
		ID:              "meta-llama3.2-1b",
		Name:            "Llama 3.2 1B Instruct",
		Provider:        "Meta",
		ProviderModelID: "meta.llama3-2-1b-instruct-v1:0",
	},
}

// Aliases returns the full model catalog.
func Aliases() []ModelAlias {
	out := make([]ModelAlias, len(aliases))
	copy(out, aliases)
	return out
}

// Catalog returns the static catalog view of every exposed model.
func Catalog() []*models.Model {
	out := make([]*models.Model, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, &models.Model{ID: a.ID, Name: a.Name, Provider: a.Provider})
	}
	return out
}

// Resolve maps a public model ID to its alias. The second return is false
// for unknown IDs.
func Resolve(id string) (ModelAlias, bool) {
	for _, a := range aliases {
		if a.ID == id {
			return a, true
		}
	}
	return ModelAlias{}, false
}
