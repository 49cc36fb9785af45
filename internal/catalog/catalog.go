// Package catalog ingests the service catalog: per-service YAML metadata
// published in the forge, squad ownership from the org styring repository,
// and the published-document index.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
)

const (
	metadataOrg  = "infra"
	metadataRepo = "otc-metadata"
	styringRepo  = "gitstyring"

	servicesDir   = "otc_metadata/data/services"
	categoriesDir = "otc_metadata/data/service_categories"
	documentsDir  = "otc_metadata/data/documents"
)

// serviceDoc is one service metadata file.
type serviceDoc struct {
	ServiceURI      string `yaml:"service_uri"`
	ServiceTitle    string `yaml:"service_title"`
	ServiceCategory string `yaml:"service_category"`
	Environment     string `yaml:"environment"`
	Teams           []struct {
		Name string `yaml:"name"`
	} `yaml:"teams"`
}

// categoryDoc maps a technical category name to its display title.
type categoryDoc struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
}

// documentDoc is one published-document metadata file.
type documentDoc struct {
	ServiceType string `yaml:"service_type"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"`
	Link        string `yaml:"link"`
}

// styringDoc is the org ownership file of the styring repository.
type styringDoc struct {
	Teams []struct {
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
	} `yaml:"teams"`
}

// Store is the subset of the repository the ingestor writes to.
type Store interface {
	ReplaceCatalog(ctx context.Context, zone entities.Zone, entries []entities.CatalogEntry) error
	ReplaceDocs(ctx context.Context, zone entities.Zone, docs []entities.DocEntry) error
}

// MetadataSource is the subset of the Gitea client the ingestor reads from.
type MetadataSource interface {
	ListDir(ctx context.Context, owner, repo, dir string) ([]forge.ContentEntry, error)
	FileContent(ctx context.Context, owner, repo, path string) ([]byte, error)
}

// Ingestor rebuilds the catalog tables from the forge metadata repositories.
type Ingestor struct {
	log   *zap.SugaredLogger
	gitea MetadataSource
	store Store
	cfg   *config.Config
}

// NewIngestor creates a catalog ingestor.
func NewIngestor(log *zap.SugaredLogger, gitea MetadataSource, store Store, cfg *config.Config) *Ingestor {
	return &Ingestor{
		log:   log.Named("catalog"),
		gitea: gitea,
		store: store,
		cfg:   cfg,
	}
}

// Run rebuilds the catalog and docs tables for one zone.
func (i *Ingestor) Run(ctx context.Context, spec config.ZoneSpec) error {
	repo := metadataRepo
	if spec.Zone == entities.ZoneHybrid {
		repo = metadataRepo + "-swiss"
	}

	categories, err := i.categoryTitles(ctx, repo)
	if err != nil {
		return fmt.Errorf("load category titles: %w", err)
	}
	squads, err := i.squadDescriptions(ctx, spec.GithubOrg)
	if err != nil {
		return fmt.Errorf("load squad descriptions: %w", err)
	}

	entries, err := i.serviceEntries(ctx, repo, categories, squads)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}
	if spec.Zone == entities.ZonePublic {
		entries = append(entries, obsoleteServices()...)
	}
	if err := i.store.ReplaceCatalog(ctx, spec.Zone, entries); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}

	docs, err := i.docEntries(ctx, repo)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if err := i.store.ReplaceDocs(ctx, spec.Zone, docs); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}

	i.log.Infow("catalog ingested", "zone", spec.Zone, "services", len(entries), "documents", len(docs))
	return nil
}

// eachYAML walks one metadata directory and decodes every .yaml file into a
// fresh value produced by decode.
func (i *Ingestor) eachYAML(ctx context.Context, repo, dir string, decode func([]byte) error) error {
	files, err := i.gitea.ListDir(ctx, metadataOrg, repo, dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.Type != "file" || !strings.HasSuffix(f.Path, ".yaml") {
			continue
		}
		content, err := i.gitea.FileContent(ctx, metadataOrg, repo, f.Path)
		if err != nil {
			return err
		}
		if err := decode(content); err != nil {
			return fmt.Errorf("decode %s: %w", f.Path, err)
		}
	}
	return nil
}

func (i *Ingestor) categoryTitles(ctx context.Context, repo string) (map[string]string, error) {
	titles := make(map[string]string)
	err := i.eachYAML(ctx, repo, categoriesDir, func(content []byte) error {
		var doc categoryDoc
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return err
		}
		titles[doc.Name] = doc.Title
		return nil
	})
	return titles, err
}

func (i *Ingestor) serviceEntries(ctx context.Context, repo string, categories, squads map[string]string) ([]entities.CatalogEntry, error) {
	var entries []entities.CatalogEntry
	err := i.eachYAML(ctx, repo, servicesDir, func(content []byte) error {
		var doc serviceDoc
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return err
		}
		category := doc.ServiceCategory
		if title, ok := categories[category]; ok {
			category = title
		}
		var squad string
		if len(doc.Teams) > 0 {
			squad = doc.Teams[0].Name
		}
		if description, ok := squads[squad]; ok {
			squad = description
		}
		entries = append(entries, entities.CatalogEntry{
			Repository: doc.ServiceURI,
			Title:      doc.ServiceTitle,
			Category:   category,
			Squad:      squad,
			Env:        doc.Environment,
		})
		return nil
	})
	return entries, err
}

func (i *Ingestor) docEntries(ctx context.Context, repo string) ([]entities.DocEntry, error) {
	var docs []entities.DocEntry
	err := i.eachYAML(ctx, repo, documentsDir, func(content []byte) error {
		var doc documentDoc
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return err
		}
		docs = append(docs, entities.DocEntry{
			ServiceType:  doc.ServiceType,
			Title:        doc.Title,
			DocumentType: doc.Type,
			Link:         doc.Link + "source",
		})
		return nil
	})
	return docs, err
}

// squadDescriptions maps team slugs to their display descriptions from the
// styring org ownership file.
func (i *Ingestor) squadDescriptions(ctx context.Context, githubOrg string) (map[string]string, error) {
	path := fmt.Sprintf("data/github/orgs/%s/data.yaml", githubOrg)
	content, err := i.gitea.FileContent(ctx, metadataOrg, styringRepo, path)
	if err != nil {
		return nil, err
	}
	var doc styringDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode styring data: %w", err)
	}
	descriptions := make(map[string]string, len(doc.Teams))
	for _, t := range doc.Teams {
		descriptions[t.Slug] = t.Description
	}
	return descriptions, nil
}

// obsoleteServices lists retired services that still have open dashboards and
// are no longer present in the metadata repository.
func obsoleteServices() []entities.CatalogEntry {
	return []entities.CatalogEntry{
		{Repository: "content-delivery-network", Title: "Content Delivery Network", Category: "Other", Squad: "Other"},
		{Repository: "data-admin-service", Title: "Data Admin Service", Category: "Other", Squad: "Other"},
	}
}
