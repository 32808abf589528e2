package catalog

import (
	"os"

	"github.com/klauern/persona/internal/collector"
	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/tree"
)

// Catalog is the output of one generation run.
type Catalog struct {
	// Text is the serialized catalog.
	Text string
	// Items are the collected entities and headers in walk order.
	Items []model.Item
	// Root is the hierarchy the text was rendered from.
	Root *tree.Node
}

// Generate collects the documents below roots, builds the hierarchy and
// serializes it. Any collection failure aborts generation with the
// aggregate *collector.ValidationError.
func Generate(roots []string, opts Options) (*Catalog, error) {
	defer logging.Timer("generate")()

	if opts.Roots == nil {
		opts.Roots = roots
	}
	if opts.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.BaseDir = wd
		}
	}

	res, err := collector.Collect(roots)
	if err != nil {
		return nil, err
	}

	root, err := tree.Build(res.Items, roots)
	if err != nil {
		return nil, err
	}

	text, err := Serialize(root, opts)
	if err != nil {
		return nil, err
	}

	logging.Debug("generated catalog",
		logging.Count(len(res.Items)),
		"bytes", len(text),
	)

	return &Catalog{Text: text, Items: res.Items, Root: root}, nil
}
