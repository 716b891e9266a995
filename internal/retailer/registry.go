package retailer

import (
	"sort"
	"strings"

	"packshot/internal/catalog"
	"packshot/internal/services"
)

// Registry is the read-only policy lookup table, populated once at process
// start from the built-in table plus configured folder roots.
type Registry struct {
	policies map[string]Policy
	order    []string
}

// FolderRoots maps retailer name to its configured destination root.
type FolderRoots map[string]string

// NewRegistry builds the registry. roots entries override the built-in
// destination folder per retailer; unknown keys in roots fail with
// ErrUnknownRetailer so configuration typos surface at startup.
func NewRegistry(roots FolderRoots) (*Registry, error) {
	registry := &Registry{policies: make(map[string]Policy)}
	for _, policy := range builtinPolicies() {
		registry.policies[strings.ToLower(policy.Name)] = policy
		registry.order = append(registry.order, policy.Name)
	}
	for name, root := range roots {
		key := strings.ToLower(strings.TrimSpace(name))
		policy, ok := registry.policies[key]
		if !ok {
			return nil, services.Wrap(services.ErrUnknownRetailer, "retailer", "configure", "no such retailer: "+name, nil)
		}
		if strings.TrimSpace(root) != "" {
			policy.FolderRoot = root
			registry.policies[key] = policy
		}
	}
	return registry, nil
}

// PolicyFor returns the policy registered under name.
func (r *Registry) PolicyFor(name string) (Policy, error) {
	policy, ok := r.policies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Policy{}, services.Wrap(services.ErrUnknownRetailer, "retailer", "lookup", "no such retailer: "+name, nil)
	}
	return policy, nil
}

// PoliciesFor resolves a list of retailer names, expanding the "all"
// shorthand to every registered policy.
func (r *Registry) PoliciesFor(names []string) ([]Policy, error) {
	if len(names) == 1 && strings.EqualFold(strings.TrimSpace(names[0]), "all") {
		return r.Policies(), nil
	}
	policies := make([]Policy, 0, len(names))
	for _, name := range names {
		policy, err := r.PolicyFor(name)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

// Policies returns every registered policy in registration order.
func (r *Registry) Policies() []Policy {
	policies := make([]Policy, 0, len(r.order))
	for _, name := range r.order {
		policies = append(policies, r.policies[strings.ToLower(name)])
	}
	return policies
}

// Names returns the registered retailer names, sorted.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

func builtinPolicies() []Policy {
	return []Policy{
		{
			Name:       "Amazon",
			FolderRoot: "downloads/amazon",
			Rules: []AssetRule{
				{Type: catalog.TypeMobileHero},
				{Type: catalog.TypeCarousel, Multi: true},
				{Type: catalog.TypeIngredient},
				{Type: catalog.TypeNutrition},
			},
			SearchIDField:  FieldBMN,
			SaveIDField:    FieldASIN,
			RequiredFields: []string{FieldBMN, FieldGTIN},
			GTINDigits:     12,
			Languages:      LanguagesEnglishPreferred,
			Filename:       AmazonName,
		},
		{
			Name:       "Sobeys",
			FolderRoot: "downloads/sobeys",
			Rules: []AssetRule{
				{Type: catalog.TypeMobileHero},
				{Type: catalog.TypeFront3D},
				{Type: catalog.TypeIngredient},
				{Type: catalog.TypeNutrition},
			},
			SearchIDField:  FieldBMN,
			SaveIDField:    FieldArticleID,
			RequiredFields: []string{FieldBMN, FieldArticleID},
			GTINDigits:     13,
			Languages:      LanguagesSplitHero,
			Filename:       SobeysName,
		},
		{
			Name:       "Instacart",
			FolderRoot: "downloads/instacart",
			Rules: []AssetRule{
				{Type: catalog.TypeMobileHero},
				{Type: catalog.TypeLeftFront},
				{Type: catalog.TypeRightFront},
				{Type: catalog.TypeIngredient},
				{Type: catalog.TypeNutrition},
			},
			SearchIDField:  FieldBMN,
			SaveIDField:    FieldGTIN,
			RequiredFields: []string{FieldBMN, FieldGTIN},
			GTINDigits:     12,
			Languages:      LanguagesEnglishPreferred,
			Filename:       InstacartName,
		},
	}
}
