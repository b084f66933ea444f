package scraper

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Classifier decides whether a URL needs a full headless-browser render or
// a plain HTTP fetch. The default implementation is a substring heuristic;
// the interface exists so it can be swapped for content-based detection
// without touching the rest of the pipeline.
type Classifier interface {
	NeedsRendering(url string) bool
}

// Default substrings that mark a URL as likely client-rendered. Known-weak
// heuristic: static pages whose path happens to contain a marker are false
// positives, unmarked SPAs are false negatives.
var defaultMarkers = []string{"spa", "app", "dashboard"}

type markerConfig struct {
	Scraper struct {
		RenderMarkers []string `yaml:"render_markers"`
	} `yaml:"scraper"`
}

// MarkerClassifier flags URLs containing any of its marker substrings.
type MarkerClassifier struct {
	markers []string
}

// NewMarkerClassifier builds a classifier with the given markers, falling
// back to the defaults when none are supplied.
func NewMarkerClassifier(markers ...string) *MarkerClassifier {
	if len(markers) == 0 {
		markers = defaultMarkers
	}
	return &MarkerClassifier{markers: markers}
}

// NewMarkerClassifierFromFile loads marker overrides from a YAML file.
// A missing or unreadable file falls back to the default markers.
func NewMarkerClassifierFromFile(path string, logger *zap.Logger) *MarkerClassifier {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("no classifier config, using default markers", zap.String("path", path))
		return NewMarkerClassifier()
	}
	var cfg markerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("failed to parse classifier config, using default markers",
			zap.String("path", path), zap.Error(err))
		return NewMarkerClassifier()
	}
	if len(cfg.Scraper.RenderMarkers) == 0 {
		return NewMarkerClassifier()
	}
	logger.Info("loaded render markers", zap.Strings("markers", cfg.Scraper.RenderMarkers))
	return NewMarkerClassifier(cfg.Scraper.RenderMarkers...)
}

func (c *MarkerClassifier) NeedsRendering(url string) bool {
	for _, m := range c.markers {
		if strings.Contains(url, m) {
			return true
		}
	}
	return false
}
